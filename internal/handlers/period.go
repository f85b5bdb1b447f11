package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/huangang/reportportal/pkg/response"
)

type PeriodHandler struct{}

func NewPeriodHandler() *PeriodHandler {
	return &PeriodHandler{}
}

type periodQuery struct {
	Date     string `form:"date" binding:"required,friday"`
	Timezone string `form:"timezone" binding:"required"`
}

type periodPreview struct {
	WeekEndingDate reportweek.Date `json:"week_ending_date"`
	Timezone       string          `json:"timezone"`
	PeriodStartAt  time.Time       `json:"period_start_at"`
	PeriodEndAt    time.Time       `json:"period_end_at"`
	StartOffset    int             `json:"start_offset_minutes"`
	EndOffset      int             `json:"end_offset_minutes"`
}

// Preview computes a week's bounds for any zone without touching storage.
func (h *PeriodHandler) Preview(c *gin.Context) {
	var q periodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	friday, err := reportweek.ParseFriday(q.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	loc, err := reportweek.LoadZone(q.Timezone)
	if err != nil {
		respondError(c, err)
		return
	}

	period := reportweek.PeriodFor(friday, loc)
	response.Success(c, periodPreview{
		WeekEndingDate: friday,
		Timezone:       q.Timezone,
		PeriodStartAt:  period.Start.UTC(),
		PeriodEndAt:    period.End.UTC(),
		StartOffset:    reportweek.OffsetMinutes(loc, period.Start),
		EndOffset:      reportweek.OffsetMinutes(loc, period.End),
	})
}
