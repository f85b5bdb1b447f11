package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/huangang/reportportal/internal/config"
	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/internal/services"
	"github.com/huangang/reportportal/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	configPath string

	okColor    = color.New(color.FgGreen)
	errorColor = color.New(color.FgRed, color.Bold)
	idColor    = color.New(color.FgCyan)
	dimColor   = color.New(color.FgHiBlack)
)

var rootCmd = &cobra.Command{
	Use:           "portalctl",
	Short:         "Operate the reporting portal",
	Long:          "portalctl manages tenants, users and report weeks directly against the portal database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Keep command output readable; only warnings and errors are logged.
		logger.InitWithWriter("warn", os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to config.yaml")

	rootCmd.AddCommand(migrateCmd, tenantCmd, userCmd, weekCmd)
}

// env is what a command needs to reach the portal's services.
type env struct {
	cfg      *config.Config
	db       *gorm.DB
	holidays *services.HolidayService
	tenants  *services.TenantService
	queue    *services.SyncQueue
}

func openEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	db, err := models.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}

	holidays := services.NewHolidayService()
	// Events raised by the CLI are delivered in-process before exit.
	queue := services.NewSyncQueue()
	queue.SetProcessor(services.NewExportNotifier(&cfg.Export).Process)

	return &env{
		cfg:      cfg,
		db:       db,
		holidays: holidays,
		tenants:  services.NewTenantService(db, nil, holidays, cfg.Portal),
		queue:    queue,
	}, nil
}

func (e *env) reportWeeks() *services.ReportWeekService {
	return services.NewReportWeekService(e.db, e.tenants, e.holidays, e.queue, e.cfg.Portal)
}

func (e *env) close() {
	_ = e.queue.Close()
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		if err := models.Migrate(e.db); err != nil {
			return err
		}
		okColor.Printf("✓ Schema migrated (%s)\n", e.cfg.Database.Driver)
		return nil
	},
}
