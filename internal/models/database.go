package models

import (
	"fmt"
	"time"

	"github.com/huangang/reportportal/internal/config"
	"github.com/huangang/reportportal/pkg/logger"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// reportWeekOverlapConstraint is the postgres-only exclusion constraint that
// rejects two overlapping [period_start_at, period_end_at) ranges for a tenant.
const reportWeekOverlapConstraint = "report_weeks_no_overlap"

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects without touching the package-level DB, for CLI commands and
// tests that need their own handle.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite serializes writers; one connection keeps :memory: databases
		// shared and avoids SQLITE_BUSY under concurrent requests.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

// gormWriter routes gorm's SQL log through zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Debug().Msgf("[GORM] "+format, args...)
}

func newGormLogger() gormlogger.Interface {
	level := gormlogger.Warn
	switch logger.Level() {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		level = gormlogger.Info
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		level = gormlogger.Error
	}
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates every table, then adds the postgres exclusion
// constraint when running on postgres.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Tenant{},
		&User{},
		&RefreshToken{},
		&ReportWeek{},
		&ReportWeekManual{},
		&SystemLog{},
		&SchedulerLock{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		return migrateOverlapConstraint(db)
	}
	return nil
}

func migrateOverlapConstraint(db *gorm.DB) error {
	if db.Migrator().HasConstraint(&ReportWeek{}, reportWeekOverlapConstraint) {
		return nil
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("failed to enable btree_gist: %w", err)
	}
	sql := fmt.Sprintf(
		`ALTER TABLE report_weeks ADD CONSTRAINT %s EXCLUDE USING gist `+
			`(tenant_id WITH =, tstzrange(period_start_at, period_end_at, '[)') WITH &&)`,
		reportWeekOverlapConstraint,
	)
	if err := db.Exec(sql).Error; err != nil {
		return fmt.Errorf("failed to add %s: %w", reportWeekOverlapConstraint, err)
	}
	logger.Infof("[Database] Added exclusion constraint %s", reportWeekOverlapConstraint)
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
