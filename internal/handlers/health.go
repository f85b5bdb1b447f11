package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the portal's dependencies.
type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
	cache *services.Cache
	hub   *services.SSEHub
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, cache *services.Cache, hub *services.SSEHub) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, cache: cache, hub: hub}
}

// CheckHealth answers 503 when the database is unreachable.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	status := http.StatusOK
	overall := "healthy"

	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	cacheMode := "disabled"
	if h.cache.Enabled() {
		cacheMode = "redis"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "reportportal",
		"components": gin.H{
			"database":    dbStatus,
			"queue_mode":  queueMode,
			"cache":       cacheMode,
			"sse_clients": h.hub.ClientCount(),
		},
	})
}
