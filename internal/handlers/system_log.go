package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/services"
	"github.com/huangang/reportportal/pkg/response"
)

type SystemLogHandler struct {
	systemLogService *services.SystemLogService
	retentionDays    int
}

func NewSystemLogHandler(service *services.SystemLogService, retentionDays int) *SystemLogHandler {
	return &SystemLogHandler{systemLogService: service, retentionDays: retentionDays}
}

func (h *SystemLogHandler) List(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.systemLogService.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Page(c, resp.Total, resp.Page, resp.PageSize, resp.Items)
}

func (h *SystemLogHandler) GetModules(c *gin.Context) {
	modules, err := h.systemLogService.GetModules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"modules": modules})
}

// Cleanup runs the retention cleanup now instead of waiting for the cron.
func (h *SystemLogHandler) Cleanup(c *gin.Context) {
	if h.retentionDays <= 0 {
		response.BadRequest(c, "log retention is disabled")
		return
	}
	deleted, err := h.systemLogService.CleanupOldLogs(h.retentionDays)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted, "retention_days": h.retentionDays})
}
