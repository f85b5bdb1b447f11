package models

import (
	"time"

	"github.com/huangang/reportportal/internal/reportweek"
)

// ReportWeek is one Monday-Friday reporting period of a tenant. The unique
// (tenant_id, week_ending_date) index is the portable backstop against
// concurrent creates: two different Fridays of one tenant can never overlap,
// so the same Friday is the only possible clash.
type ReportWeek struct {
	ID             string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID       uint              `gorm:"not null;uniqueIndex:idx_report_weeks_tenant_week,priority:1" json:"tenant_id"`
	WeekEndingDate reportweek.Date   `gorm:"type:date;not null;uniqueIndex:idx_report_weeks_tenant_week,priority:2" json:"week_ending_date"`
	PeriodStartAt  time.Time         `gorm:"not null;index" json:"period_start_at"`
	PeriodEndAt    time.Time         `gorm:"not null" json:"period_end_at"`
	Status         reportweek.Status `gorm:"size:20;not null;default:draft;index" json:"status"`
	PublishedAt    *time.Time        `json:"published_at"`
	PublishedBy    *uint             `json:"published_by"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	Manual *ReportWeekManual `gorm:"foreignKey:ReportWeekID;constraint:OnDelete:CASCADE" json:"manual,omitempty"`
}

func (ReportWeek) TableName() string { return "report_weeks" }

// Period returns the stored boundaries.
func (w *ReportWeek) Period() reportweek.Period {
	return reportweek.Period{Start: w.PeriodStartAt, End: w.PeriodEndAt}
}

// Publication returns the publish bookkeeping.
func (w *ReportWeek) Publication() reportweek.Publication {
	return reportweek.Publication{PublishedAt: w.PublishedAt, PublishedBy: w.PublishedBy}
}

// Span is the overlap-check view of the week.
func (w *ReportWeek) Span() reportweek.Span {
	return reportweek.Span{ID: w.ID, WeekEndingDate: w.WeekEndingDate, Period: w.Period()}
}

// ReportWeekManual holds the hand-written content of a report week. It is
// created empty with the week and is only writable while the week is a draft.
type ReportWeekManual struct {
	ReportWeekID  string    `gorm:"primaryKey;size:36" json:"report_week_id"`
	Narrative     *string   `gorm:"type:text" json:"narrative"`
	Initiatives   *string   `gorm:"type:text" json:"initiatives"`
	Needs         *string   `gorm:"type:text" json:"needs"`
	DiscoveryDays *string   `gorm:"type:text" json:"discovery_days"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (ReportWeekManual) TableName() string { return "report_week_manuals" }
