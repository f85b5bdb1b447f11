package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/middleware"
	"github.com/huangang/reportportal/internal/services"
	"github.com/huangang/reportportal/pkg/response"
)

// ReportWeekHandler serves /api/tenants/:tenant_id/report-weeks. The tenant
// comes from middleware.TenantAccess.
type ReportWeekHandler struct {
	service *services.ReportWeekService
}

func NewReportWeekHandler(service *services.ReportWeekService) *ReportWeekHandler {
	return &ReportWeekHandler{service: service}
}

func (h *ReportWeekHandler) List(c *gin.Context) {
	var req services.ReportWeekListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.service.List(c.Request.Context(), middleware.ScopeTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Page(c, resp.Total, resp.Page, resp.PageSize, resp.Items)
}

func (h *ReportWeekHandler) Create(c *gin.Context) {
	var req services.CreateReportWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	week, err := h.service.Create(c.Request.Context(), middleware.ScopeTenantID(c), req.WeekEndingDate)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, week)
}

func (h *ReportWeekHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), middleware.ScopeTenantID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *ReportWeekHandler) Update(c *gin.Context) {
	var req services.UpdateReportWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.WeekEndingDate == nil && req.Status == nil {
		response.BadRequest(c, "nothing to update")
		return
	}

	week, err := h.service.Update(c.Request.Context(), middleware.ScopeTenantID(c), c.Param("id"), &req, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, week)
}

func (h *ReportWeekHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.ScopeTenantID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func (h *ReportWeekHandler) GetManual(c *gin.Context) {
	manual, err := h.service.GetManual(c.Request.Context(), middleware.ScopeTenantID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, manual)
}

func (h *ReportWeekHandler) UpdateManual(c *gin.Context) {
	var req services.UpdateManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	manual, err := h.service.UpdateManual(c.Request.Context(), middleware.ScopeTenantID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, manual)
}
