package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/middleware"
	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine. It returns
// the login limiter so its sweeper can be stopped on shutdown.
func registerRoutes(r *gin.Engine, svc *appServices) *middleware.RateLimiter {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins))

	// Brute-force guard for the credential endpoints
	loginLimiter := middleware.NewRateLimiter(1, 5)

	r.GET("/health", svc.health.CheckHealth)
	r.GET("/metrics", svc.metrics.Metrics)

	api := r.Group("/api")
	{
		// Public
		auth := api.Group("/auth", loginLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}
		api.GET("/timezones/period", svc.periods.Preview)
		api.GET("/countries", svc.tenants.Countries)

		// Authenticated
		protected := api.Group("", middleware.AuthRequired(), middleware.AuditLog())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)
		}

		// Tenant scoped: admins or members of :tenant_id
		tenant := api.Group("/tenants/:tenant_id", middleware.AuthRequired(), middleware.TenantAccess(), middleware.AuditLog())
		{
			tenant.GET("", svc.tenants.Get)
			tenant.GET("/report-weeks", svc.reportWeeks.List)
			tenant.GET("/report-weeks/:id", svc.reportWeeks.Get)
			tenant.GET("/report-weeks/:id/manual", svc.reportWeeks.GetManual)

			// Viewers are read-only
			writes := tenant.Group("", middleware.RoleRequired(models.RoleAdmin, models.RoleOperator))
			writes.POST("/report-weeks", svc.reportWeeks.Create)
			writes.PUT("/report-weeks/:id", svc.reportWeeks.Update)
			writes.DELETE("/report-weeks/:id", svc.reportWeeks.Delete)
			writes.PUT("/report-weeks/:id/manual", svc.reportWeeks.UpdateManual)

			tenant.PUT("", middleware.AdminRequired(), svc.tenants.Update)
		}

		// Live status feed; EventSource passes the JWT as ?token=
		api.GET("/tenants/:tenant_id/events", middleware.QueryToken(), middleware.AuthRequired(), middleware.TenantAccess(), svc.events.StreamReportWeekEvents)

		// Admin only
		admin := api.Group("", middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.GET("/tenants", svc.tenants.List)
			admin.POST("/tenants", svc.tenants.Create)

			admin.GET("/users", svc.userHandler.List)
			admin.POST("/users", svc.userHandler.Create)

			admin.GET("/system-logs", svc.systemLogs.List)
			admin.GET("/system-logs/modules", svc.systemLogs.GetModules)
			admin.POST("/system-logs/cleanup", svc.systemLogs.Cleanup)
		}
	}

	return loginLimiter
}
