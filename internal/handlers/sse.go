package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/huangang/reportportal/internal/middleware"
	"github.com/huangang/reportportal/internal/services"
	"github.com/huangang/reportportal/pkg/logger"
)

const sseKeepAlive = 25 * time.Second

// SSEHandler streams report week status changes to the browser.
type SSEHandler struct {
	hub *services.SSEHub
}

func NewSSEHandler(hub *services.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// StreamReportWeekEvents serves GET /api/tenants/:tenant_id/events.
func (h *SSEHandler) StreamReportWeekEvents(c *gin.Context) {
	tenantID := middleware.ScopeTenantID(c)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.NewString()
	events := h.hub.Subscribe(clientID, tenantID)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().Str("client_id", clientID).Uint("tenant_id", tenantID).Int("total", h.hub.ClientCount()).Msg("[SSE] Client connected")

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case task, ok := <-events:
			if !ok {
				return false
			}
			data, err := json.Marshal(task)
			if err != nil {
				logger.Error().Err(err).Msg("[SSE] Marshal error")
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", task.Event, data)
			return true
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			return true
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("[SSE] Client disconnected")
			return false
		}
	})
}
