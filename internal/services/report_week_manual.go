package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/huangang/reportportal/pkg/logger"
)

// UpdateManualRequest replaces the supplied fields. An empty or
// whitespace-only string clears a field back to null.
type UpdateManualRequest struct {
	Narrative     *string `json:"narrative"`
	Initiatives   *string `json:"initiatives"`
	Needs         *string `json:"needs"`
	DiscoveryDays *string `json:"discovery_days"`
}

func (r *UpdateManualRequest) empty() bool {
	return r.Narrative == nil && r.Initiatives == nil && r.Needs == nil && r.DiscoveryDays == nil
}

// GetManual returns the manual content of a tenant's week.
func (s *ReportWeekService) GetManual(ctx context.Context, tenantID uint, id string) (*models.ReportWeekManual, error) {
	var manual models.ReportWeekManual
	err := s.db.WithContext(ctx).
		Joins("JOIN report_weeks ON report_weeks.id = report_week_manuals.report_week_id").
		Where("report_weeks.id = ? AND report_weeks.tenant_id = ?", id, tenantID).
		First(&manual).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reportweek.NotFoundf("report week %s not found", id)
		}
		return nil, reportweek.Internal("failed to load manual content", err)
	}
	return &manual, nil
}

// UpdateManual writes manual content. The draft check runs inside the write
// transaction against the locked week row, so a publish that commits first
// makes this fail with a state error instead of editing a published week.
func (s *ReportWeekService) UpdateManual(ctx context.Context, tenantID uint, id string, req *UpdateManualRequest) (*models.ReportWeekManual, error) {
	if req.empty() {
		return nil, reportweek.Validationf("no manual content fields supplied")
	}

	var manual models.ReportWeekManual
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		week, err := lockWeek(tx, tenantID, id)
		if err != nil {
			return err
		}
		if err := reportweek.CanEditManual(week.Status).Error(); err != nil {
			return err
		}

		if err := tx.Where("report_week_id = ?", week.ID).First(&manual).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// Weeks always get a manual row on create; recreate one if it
			// was lost rather than failing the edit.
			manual = models.ReportWeekManual{ReportWeekID: week.ID}
		}

		applyManual(&manual, req)
		return tx.Save(&manual).Error
	})
	if err != nil {
		err = asEngineError("failed to update manual content", err)
		s.logFailure("update_manual", tenantID, id, err)
		return nil, err
	}

	logger.Debug().Str("report_week_id", id).Uint("tenant_id", tenantID).Msg("[ReportWeek] manual content updated")
	return &manual, nil
}

func applyManual(m *models.ReportWeekManual, req *UpdateManualRequest) {
	set := func(dst **string, v *string) {
		if v == nil {
			return
		}
		if strings.TrimSpace(*v) == "" {
			*dst = nil
			return
		}
		val := *v
		*dst = &val
	}
	set(&m.Narrative, req.Narrative)
	set(&m.Initiatives, req.Initiatives)
	set(&m.Needs, req.Needs)
	set(&m.DiscoveryDays, req.DiscoveryDays)
}
