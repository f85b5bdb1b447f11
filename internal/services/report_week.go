package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/huangang/reportportal/internal/config"
	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/huangang/reportportal/pkg/logger"
)

// overlapWindowDays bounds the neighbour query of the overlap check. Weeks
// whose Fridays are further apart than this cannot overlap in any zone.
const overlapWindowDays = 7

// ReportWeekService is the report week lifecycle and repository.
type ReportWeekService struct {
	db       *gorm.DB
	tenants  TenantProfileProvider
	holidays *HolidayService
	queue    TaskQueue
	events   *SSEHub
	limits   config.PortalConfig

	now   func() time.Time
	newID func() string
}

func NewReportWeekService(db *gorm.DB, tenants TenantProfileProvider, holidays *HolidayService, queue TaskQueue, limits config.PortalConfig) *ReportWeekService {
	if holidays == nil {
		holidays = NewHolidayService()
	}
	return &ReportWeekService{
		db:       db,
		tenants:  tenants,
		holidays: holidays,
		queue:    queue,
		limits:   limits,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type CreateReportWeekRequest struct {
	WeekEndingDate string `json:"week_ending_date" binding:"required,friday"`
}

// UpdateReportWeekRequest is a partial update; nil fields are left alone.
type UpdateReportWeekRequest struct {
	WeekEndingDate *string `json:"week_ending_date" binding:"omitempty,friday"`
	Status         *string `json:"status" binding:"omitempty,oneof=draft published"`
}

type ReportWeekListRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft published"`
	Year     int    `form:"year" binding:"omitempty,min=1,max=9999"`
	Month    int    `form:"month" binding:"omitempty,min=1,max=12"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
}

type ReportWeekListResponse struct {
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Items    []models.ReportWeek `json:"items"`
}

// SetEventHub makes publish and unpublish visible to live SSE clients.
func (s *ReportWeekService) SetEventHub(hub *SSEHub) {
	s.events = hub
}

// ReportWeekDetail is a week with its manual content and the number of
// working days in the tenant's holiday calendar.
type ReportWeekDetail struct {
	*models.ReportWeek
	WorkingDays int `json:"working_days"`
}

// location resolves the tenant's zone. Zones are validated when the tenant
// is configured, so a failure here is a broken record.
func (s *ReportWeekService) location(ctx context.Context, tenantID uint) (*time.Location, *TenantProfile, error) {
	profile, err := s.tenants.Profile(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	loc, err := reportweek.LoadZone(profile.Timezone)
	if err != nil {
		return nil, nil, reportweek.Internal("tenant has an invalid timezone", err)
	}
	return loc, profile, nil
}

// Create inserts a draft week and its empty manual content in one
// transaction.
func (s *ReportWeekService) Create(ctx context.Context, tenantID uint, weekEndingDate string) (*models.ReportWeek, error) {
	friday, err := reportweek.ParseFriday(weekEndingDate)
	if err != nil {
		return nil, err
	}
	loc, _, err := s.location(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	period := reportweek.PeriodFor(friday, loc)

	week := &models.ReportWeek{
		ID:             s.newID(),
		TenantID:       tenantID,
		WeekEndingDate: friday,
		PeriodStartAt:  period.Start,
		PeriodEndAt:    period.End,
		Status:         reportweek.StatusDraft,
	}
	manual := &models.ReportWeekManual{ReportWeekID: week.ID}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkOverlap(tx, tenantID, friday, period, ""); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(week).Error; err != nil {
			return err
		}
		return tx.Create(manual).Error
	})
	if err != nil {
		if isConstraintViolation(err) {
			return nil, reportweek.Conflictf("a report week ending %s already exists for this tenant", friday)
		}
		err = asEngineError("failed to create report week", err)
		s.logFailure("create", tenantID, "", err)
		return nil, err
	}

	week.Manual = manual
	logger.Infof("[ReportWeek] Created %s for tenant %d, week ending %s (%s .. %s)",
		week.ID, tenantID, friday, period.Start.Format(time.RFC3339), period.End.Format(time.RFC3339))
	return week, nil
}

// checkOverlap loads the tenant's neighbouring weeks and rejects the
// candidate period if it intersects any of them other than excludeID.
func (s *ReportWeekService) checkOverlap(tx *gorm.DB, tenantID uint, friday reportweek.Date, period reportweek.Period, excludeID string) error {
	var neighbours []models.ReportWeek
	query := tx.Select("id", "week_ending_date", "period_start_at", "period_end_at").
		Where("tenant_id = ? AND week_ending_date BETWEEN ? AND ?",
			tenantID, friday.AddDays(-overlapWindowDays), friday.AddDays(overlapWindowDays))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Find(&neighbours).Error; err != nil {
		return reportweek.Internal("failed to check report week overlap", err)
	}

	spans := make([]reportweek.Span, len(neighbours))
	for i := range neighbours {
		spans[i] = neighbours[i].Span()
	}
	if hit, ok := reportweek.FirstOverlap(period, spans, excludeID); ok {
		return reportweek.Conflictf("report week ending %s overlaps the existing week ending %s", friday, hit.WeekEndingDate)
	}
	return nil
}

// lockWeek loads a tenant's week inside tx, holding a row lock where the
// database supports it.
func lockWeek(tx *gorm.DB, tenantID uint, id string) (*models.ReportWeek, error) {
	var week models.ReportWeek
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&week).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reportweek.NotFoundf("report week %s not found", id)
		}
		return nil, reportweek.Internal("failed to load report week", err)
	}
	return &week, nil
}

// Update applies a date edit and/or a status transition. The date edit is
// judged against the stored status, so a published week cannot move even in
// the same request that unpublishes it. actorID stamps publishedBy.
func (s *ReportWeekService) Update(ctx context.Context, tenantID uint, id string, req *UpdateReportWeekRequest, actorID uint) (*models.ReportWeek, error) {
	var (
		newFriday *reportweek.Date
		newStatus *reportweek.Status
		loc       *time.Location
	)
	if req.Status != nil {
		st, err := reportweek.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		newStatus = &st
	}
	if req.WeekEndingDate != nil {
		friday, err := reportweek.ParseFriday(*req.WeekEndingDate)
		if err != nil {
			return nil, err
		}
		newFriday = &friday
		if loc, _, err = s.location(ctx, tenantID); err != nil {
			return nil, err
		}
	}

	var (
		week       *models.ReportWeek
		transition = reportweek.TransitionNone
		changed    bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if week, err = lockWeek(tx, tenantID, id); err != nil {
			return err
		}

		if newFriday != nil {
			if week.Status != reportweek.StatusDraft {
				if !newFriday.Equal(week.WeekEndingDate) {
					return reportweek.CanEditDate(week.Status).Error()
				}
			} else {
				period := reportweek.PeriodFor(*newFriday, loc)
				stored := week.Period()
				if !newFriday.Equal(week.WeekEndingDate) || !period.Start.Equal(stored.Start) || !period.End.Equal(stored.End) {
					if err := s.checkOverlap(tx, tenantID, *newFriday, period, week.ID); err != nil {
						return err
					}
					week.WeekEndingDate = *newFriday
					week.PeriodStartAt = period.Start
					week.PeriodEndAt = period.End
					changed = true
				}
			}
		}

		if newStatus != nil {
			if transition, err = reportweek.PlanTransition(week.Status, *newStatus); err != nil {
				return err
			}
			if transition != reportweek.TransitionNone {
				pub := transition.Apply(week.Publication(), actorID, s.now())
				week.Status = *newStatus
				week.PublishedAt = pub.PublishedAt
				week.PublishedBy = pub.PublishedBy
				changed = true
			}
		}

		if !changed {
			return nil
		}
		return tx.Omit(clause.Associations).Save(week).Error
	})
	if err != nil {
		if isConstraintViolation(err) && newFriday != nil {
			return nil, reportweek.Conflictf("a report week ending %s already exists for this tenant", newFriday.String())
		}
		err = asEngineError("failed to update report week", err)
		s.logFailure("update", tenantID, id, err)
		return nil, err
	}

	if transition != reportweek.TransitionNone {
		logger.Infof("[ReportWeek] %s %s (tenant %d) by user %d", transition, week.ID, tenantID, actorID)
		s.emit(transition, week, actorID)
	}
	return week, nil
}

// Delete removes a draft week and its manual content.
func (s *ReportWeekService) Delete(ctx context.Context, tenantID uint, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		week, err := lockWeek(tx, tenantID, id)
		if err != nil {
			return err
		}
		if err := reportweek.CanDelete(week.Status).Error(); err != nil {
			return err
		}
		// The FK cascades too; the explicit delete keeps engines without
		// enforced foreign keys (sqlite by default) free of orphans.
		if err := tx.Where("report_week_id = ?", week.ID).Delete(&models.ReportWeekManual{}).Error; err != nil {
			return err
		}
		return tx.Delete(week).Error
	})
	if err != nil {
		err = asEngineError("failed to delete report week", err)
		s.logFailure("delete", tenantID, id, err)
		return err
	}

	logger.Infof("[ReportWeek] Deleted %s (tenant %d)", id, tenantID)
	return nil
}

// Get returns a week with its manual content and working days.
func (s *ReportWeekService) Get(ctx context.Context, tenantID uint, id string) (*ReportWeekDetail, error) {
	var week models.ReportWeek
	err := s.db.WithContext(ctx).Preload("Manual").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&week).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reportweek.NotFoundf("report week %s not found", id)
		}
		return nil, reportweek.Internal("failed to load report week", err)
	}

	country := CountryWeekdaysOnly
	if profile, err := s.tenants.Profile(ctx, tenantID); err == nil {
		country = profile.Country
	} else {
		logger.Warnf("[ReportWeek] Tenant %d profile unavailable, counting weekdays only: %v", tenantID, err)
	}

	return &ReportWeekDetail{
		ReportWeek:  &week,
		WorkingDays: s.holidays.WorkingDays(week.WeekEndingDate, country),
	}, nil
}

// List returns a tenant's weeks, newest week ending first. An unknown tenant
// is NotFound rather than an empty page.
func (s *ReportWeekService) List(ctx context.Context, tenantID uint, req *ReportWeekListRequest) (*ReportWeekListResponse, error) {
	if _, err := s.tenants.Profile(ctx, tenantID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.ReportWeek{}).Where("tenant_id = ?", tenantID)

	if req.Status != "" {
		st, err := reportweek.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		query = query.Where("status = ?", string(st))
	}

	if req.Month != 0 && req.Year == 0 {
		return nil, reportweek.Validationf("month filter requires year")
	}
	if req.Month < 0 || req.Month > 12 {
		return nil, reportweek.Validationf("month must be between 1 and 12")
	}
	if req.Year != 0 {
		from, to := listDateRange(req.Year, req.Month)
		query = query.Where("week_ending_date BETWEEN ? AND ?", from, to)
	}

	page, pageSize := normalizePage(req.Page, req.PageSize, s.limits)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, reportweek.Internal("failed to count report weeks", err)
	}

	var weeks []models.ReportWeek
	if err := query.Order("week_ending_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&weeks).Error; err != nil {
		return nil, reportweek.Internal("failed to list report weeks", err)
	}

	return &ReportWeekListResponse{Total: total, Page: page, PageSize: pageSize, Items: weeks}, nil
}

// listDateRange is the inclusive week-ending date range of a year or of one
// month of it.
func listDateRange(year, month int) (reportweek.Date, reportweek.Date) {
	if month == 0 {
		t := now.With(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
		return reportweek.DateOf(t.BeginningOfYear()), reportweek.DateOf(t.EndOfYear())
	}
	t := now.With(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
	return reportweek.DateOf(t.BeginningOfMonth()), reportweek.DateOf(t.EndOfMonth())
}

func (s *ReportWeekService) emit(transition reportweek.Transition, week *models.ReportWeek, actorID uint) {
	event := EventReportWeekPublished
	if transition == reportweek.TransitionUnpublish {
		event = EventReportWeekUnpublished
	}
	task := &ReportWeekTask{
		Event:          event,
		ReportWeekID:   week.ID,
		TenantID:       week.TenantID,
		WeekEndingDate: week.WeekEndingDate.String(),
		PeriodStartAt:  week.PeriodStartAt,
		PeriodEndAt:    week.PeriodEndAt,
		PublishedAt:    week.PublishedAt,
		PublishedBy:    week.PublishedBy,
		ActorID:        actorID,
		OccurredAt:     s.now().UTC(),
	}
	s.events.Publish(task)
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Errorf("[ReportWeek] Failed to enqueue %s for %s: %v", event, week.ID, err)
	}
}

// logFailure logs internal errors with their cause; expected outcomes are
// left to the request log.
func (s *ReportWeekService) logFailure(op string, tenantID uint, id string, err error) {
	if reportweek.KindOf(err) != reportweek.KindInternal {
		return
	}
	logger.Error().Err(errors.Unwrap(err)).
		Str("op", op).
		Uint("tenant_id", tenantID).
		Str("report_week_id", id).
		Msg("[ReportWeek] " + err.Error())
}
