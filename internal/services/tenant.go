package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/reportportal/internal/config"
	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/huangang/reportportal/pkg/logger"
	"gorm.io/gorm"
)

const tenantProfileTTL = 10 * time.Minute

// TenantProfile is what the report week engine needs to know about a tenant.
type TenantProfile struct {
	TenantID uint   `json:"tenant_id"`
	Timezone string `json:"timezone"`
	Country  string `json:"country"`
}

// TenantProfileProvider resolves tenantID to its time zone and holiday
// calendar.
type TenantProfileProvider interface {
	Profile(ctx context.Context, tenantID uint) (*TenantProfile, error)
}

type TenantService struct {
	db       *gorm.DB
	cache    *Cache
	holidays *HolidayService
	defaults config.PortalConfig
}

func NewTenantService(db *gorm.DB, cache *Cache, holidays *HolidayService, defaults config.PortalConfig) *TenantService {
	if holidays == nil {
		holidays = NewHolidayService()
	}
	return &TenantService{db: db, cache: cache, holidays: holidays, defaults: defaults}
}

type CreateTenantRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Slug     string `json:"slug" binding:"required,max=100"`
	Timezone string `json:"timezone" binding:"omitempty,timezone"`
	Country  string `json:"country" binding:"omitempty,max=8"`
}

type UpdateTenantRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=200"`
	Timezone *string `json:"timezone" binding:"omitempty,timezone"`
	Country  *string `json:"country" binding:"omitempty,max=8"`
	IsActive *bool   `json:"is_active"`
}

type TenantListResponse struct {
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Items    []models.Tenant `json:"items"`
}

func tenantCacheKey(id uint) string {
	return fmt.Sprintf("tenant:profile:%d", id)
}

// Profile implements TenantProfileProvider with a read-through Redis cache.
func (s *TenantService) Profile(ctx context.Context, tenantID uint) (*TenantProfile, error) {
	var profile TenantProfile
	found, err := s.cache.GetObject(ctx, tenantCacheKey(tenantID), &profile)
	if err != nil {
		logger.Warnf("[Tenant] Cache read failed for tenant %d: %v", tenantID, err)
	}
	if found {
		return &profile, nil
	}

	tenant, err := s.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	profile = TenantProfile{TenantID: tenant.ID, Timezone: tenant.Timezone, Country: tenant.Country}
	if err := s.cache.SetObject(ctx, tenantCacheKey(tenantID), &profile, tenantProfileTTL); err != nil {
		logger.Warnf("[Tenant] Cache write failed for tenant %d: %v", tenantID, err)
	}
	return &profile, nil
}

func (s *TenantService) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reportweek.NotFoundf("tenant %d not found", id)
		}
		return nil, reportweek.Internal("failed to load tenant", err)
	}
	return &tenant, nil
}

func (s *TenantService) List(ctx context.Context, page, pageSize int) (*TenantListResponse, error) {
	page, pageSize = normalizePage(page, pageSize, s.defaults)

	var tenants []models.Tenant
	var total int64
	query := s.db.WithContext(ctx).Model(&models.Tenant{})
	if err := query.Count(&total).Error; err != nil {
		return nil, reportweek.Internal("failed to count tenants", err)
	}
	if err := query.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&tenants).Error; err != nil {
		return nil, reportweek.Internal("failed to list tenants", err)
	}

	return &TenantListResponse{Total: total, Page: page, PageSize: pageSize, Items: tenants}, nil
}

// Create is the only place, together with Update, where a zone name is
// accepted; unknown zones never reach the report week engine.
func (s *TenantService) Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error) {
	tenant := models.Tenant{
		Name:     strings.TrimSpace(req.Name),
		Slug:     strings.ToLower(strings.TrimSpace(req.Slug)),
		Timezone: req.Timezone,
		Country:  strings.ToUpper(req.Country),
		IsActive: true,
	}
	if tenant.Name == "" || tenant.Slug == "" {
		return nil, reportweek.Validationf("tenant name and slug are required")
	}
	if tenant.Timezone == "" {
		tenant.Timezone = s.defaults.DefaultTimezone
	}
	if tenant.Country == "" {
		tenant.Country = strings.ToUpper(s.defaults.DefaultCountry)
	}
	if err := s.validateProfile(tenant.Timezone, tenant.Country); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&tenant).Error; err != nil {
		if isConstraintViolation(err) {
			return nil, reportweek.Conflictf("tenant slug %q is already taken", tenant.Slug)
		}
		return nil, reportweek.Internal("failed to create tenant", err)
	}

	logger.Infof("[Tenant] Created tenant %d (%s) in %s", tenant.ID, tenant.Slug, tenant.Timezone)
	return &tenant, nil
}

// Update changes tenant settings. Existing report weeks keep the periods they
// were created with; only new weeks and date edits use the new zone.
func (s *TenantService) Update(ctx context.Context, id uint, req *UpdateTenantRequest) (*models.Tenant, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, reportweek.Validationf("tenant name cannot be empty")
		}
		tenant.Name = name
	}
	if req.Timezone != nil {
		tenant.Timezone = *req.Timezone
	}
	if req.Country != nil {
		tenant.Country = strings.ToUpper(*req.Country)
	}
	if req.IsActive != nil {
		tenant.IsActive = *req.IsActive
	}
	if err := s.validateProfile(tenant.Timezone, tenant.Country); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return nil, reportweek.Internal("failed to update tenant", err)
	}
	if err := s.cache.Delete(ctx, tenantCacheKey(id)); err != nil {
		logger.Warnf("[Tenant] Cache invalidation failed for tenant %d: %v", id, err)
	}

	logger.Infof("[Tenant] Updated tenant %d", id)
	return tenant, nil
}

func (s *TenantService) validateProfile(zone, country string) error {
	if err := reportweek.ValidateTimezone(zone); err != nil {
		return err
	}
	if !s.holidays.IsSupported(country) {
		return reportweek.Validationf("unsupported holiday country %q", country)
	}
	return nil
}

// normalizePage applies the configured page size defaults and cap.
func normalizePage(page, pageSize int, limits config.PortalConfig) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = limits.DefaultPageSize
		if pageSize < 1 {
			pageSize = 10
		}
	}
	if limits.MaxPageSize > 0 && pageSize > limits.MaxPageSize {
		pageSize = limits.MaxPageSize
	}
	return page, pageSize
}
