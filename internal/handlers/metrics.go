package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/huangang/reportportal/internal/services"
	"gorm.io/gorm"
)

// MetricsHandler serves Prometheus text-format gauges.
type MetricsHandler struct {
	db      *gorm.DB
	queue   services.TaskQueue
	hub     *services.SSEHub
	started time.Time
}

func NewMetricsHandler(db *gorm.DB, queue services.TaskQueue, hub *services.SSEHub) *MetricsHandler {
	return &MetricsHandler{db: db, queue: queue, hub: hub, started: time.Now()}
}

func (h *MetricsHandler) Metrics(c *gin.Context) {
	var b strings.Builder

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	writeGauge(&b, "reportportal_uptime_seconds", "Time since server start in seconds", time.Since(h.started).Seconds())
	writeGauge(&b, "reportportal_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "reportportal_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))

	if sqlDB, err := h.db.DB(); err == nil {
		stats := sqlDB.Stats()
		writeGauge(&b, "reportportal_db_open_connections", "Number of open DB connections", float64(stats.OpenConnections))
		writeGauge(&b, "reportportal_db_in_use_connections", "Number of in-use DB connections", float64(stats.InUse))
	}

	writeGauge(&b, "reportportal_sse_active_clients", "Number of active SSE connections", float64(h.hub.ClientCount()))

	queueAsync := 0.0
	if h.queue != nil && h.queue.IsAsync() {
		queueAsync = 1
	}
	writeGauge(&b, "reportportal_queue_async_enabled", "Whether the Redis task queue is in use (1=yes, 0=no)", queueAsync)

	ctx := c.Request.Context()
	var rows []struct {
		Status string
		Count  int64
	}
	if err := h.db.WithContext(ctx).Model(&models.ReportWeek{}).
		Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err == nil {
		counts := map[string]int64{string(reportweek.StatusDraft): 0, string(reportweek.StatusPublished): 0}
		for _, r := range rows {
			counts[r.Status] = r.Count
		}
		fmt.Fprintf(&b, "# HELP reportportal_report_weeks Report weeks by status\n# TYPE reportportal_report_weeks gauge\n")
		for _, status := range []string{string(reportweek.StatusDraft), string(reportweek.StatusPublished)} {
			fmt.Fprintf(&b, "reportportal_report_weeks{status=%q} %d\n", status, counts[status])
		}
		b.WriteString("\n")
	}

	var tenants, users int64
	h.db.WithContext(ctx).Model(&models.Tenant{}).Where("is_active = ?", true).Count(&tenants)
	h.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Count(&users)
	writeGauge(&b, "reportportal_tenants_active", "Number of active tenants", float64(tenants))
	writeGauge(&b, "reportportal_users_active", "Number of active users", float64(users))

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}
