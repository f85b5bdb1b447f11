package main

import (
	"context"

	"github.com/huangang/reportportal/internal/config"
	"github.com/huangang/reportportal/internal/handlers"
	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/internal/services"
	"github.com/huangang/reportportal/internal/utils"
	"github.com/huangang/reportportal/pkg/logger"
	"github.com/robfig/cron/v3"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg         *config.Config
	cache       *services.Cache
	taskQueue   services.TaskQueue
	worker      *services.Worker
	logCleanup  *cron.Cron
	authHandler *handlers.AuthHandler
	userHandler *handlers.UserHandler
	tenants     *handlers.TenantHandler
	reportWeeks *handlers.ReportWeekHandler
	periods     *handlers.PeriodHandler
	systemLogs  *handlers.SystemLogHandler
	events      *handlers.SSEHandler
	metrics     *handlers.MetricsHandler
	health      *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)
	handlers.RegisterValidators()

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	services.InitSystemLogger(db)
	logCleanup, err := services.StartLogCleanupScheduler(db, cfg.Log.RetentionDays)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to start log cleanup scheduler")
	}

	cache := services.NewCache(&cfg.Redis)
	holidays := services.NewHolidayService()
	tenantService := services.NewTenantService(db, cache, holidays, cfg.Portal)

	// Publish/unpublish events go to the export webhook, through asynq when
	// Redis is up and in-process otherwise.
	notifier := services.NewExportNotifier(&cfg.Export)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notifier.Process)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notifier.Process)
			if err := worker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start task worker")
				worker = nil
			}
		}
	}

	hub := services.NewSSEHub()
	reportWeekService := services.NewReportWeekService(db, tenantService, holidays, taskQueue, cfg.Portal)
	reportWeekService.SetEventHub(hub)

	authService := services.NewAuthService(db, &cfg.JWT)
	if err := authService.CreateAdminIfNotExists(context.Background(), &cfg.Admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:         cfg,
		cache:       cache,
		taskQueue:   taskQueue,
		worker:      worker,
		logCleanup:  logCleanup,
		authHandler: handlers.NewAuthHandler(authService),
		userHandler: handlers.NewUserHandler(authService),
		tenants:     handlers.NewTenantHandler(tenantService, holidays),
		reportWeeks: handlers.NewReportWeekHandler(reportWeekService),
		periods:     handlers.NewPeriodHandler(),
		systemLogs:  handlers.NewSystemLogHandler(services.NewSystemLogService(db), cfg.Log.RetentionDays),
		events:      handlers.NewSSEHandler(hub),
		metrics:     handlers.NewMetricsHandler(db, taskQueue, hub),
		health:      handlers.NewHealthHandler(db, taskQueue, cache, hub),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.logCleanup != nil {
		<-s.logCleanup.Stop().Done()
		logger.Info().Msg("Log cleanup scheduler stopped")
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if err := s.cache.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close cache")
	}
	if sqlDB, err := models.GetDB().DB(); err == nil {
		sqlDB.Close()
	}
}
