package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/middleware"
	"github.com/huangang/reportportal/internal/services"
	"github.com/huangang/reportportal/pkg/response"
)

type TenantHandler struct {
	service  *services.TenantService
	holidays *services.HolidayService
}

func NewTenantHandler(service *services.TenantService, holidays *services.HolidayService) *TenantHandler {
	return &TenantHandler{service: service, holidays: holidays}
}

func (h *TenantHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	resp, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Page(c, resp.Total, resp.Page, resp.PageSize, resp.Items)
}

func (h *TenantHandler) Create(c *gin.Context) {
	var req services.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tenant, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, tenant)
}

// Get is behind TenantAccess, so members can read their own tenant.
func (h *TenantHandler) Get(c *gin.Context) {
	tenant, err := h.service.GetByID(c.Request.Context(), middleware.ScopeTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, tenant)
}

func (h *TenantHandler) Update(c *gin.Context) {
	var req services.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tenant, err := h.service.Update(c.Request.Context(), middleware.ScopeTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, tenant)
}

// Countries lists the holiday calendars a tenant can be assigned.
func (h *TenantHandler) Countries(c *gin.Context) {
	response.Success(c, h.holidays.GetSupportedCountries())
}
