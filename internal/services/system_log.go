package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var globalDB *gorm.DB

func InitSystemLogger(db *gorm.DB) {
	globalDB = db
}

// AuditEntry is one row of the audit trail.
type AuditEntry struct {
	Module    string
	Action    string
	Message   string
	UserID    *uint
	TenantID  *uint
	IP        string
	UserAgent string
	Extra     interface{}
}

func LogInfo(entry AuditEntry) {
	writeLog("info", entry)
}

func LogWarning(entry AuditEntry) {
	writeLog("warning", entry)
}

func LogError(entry AuditEntry) {
	writeLog("error", entry)
}

func writeLog(level string, entry AuditEntry) {
	if globalDB == nil {
		return
	}

	var extraStr string
	if entry.Extra != nil {
		if b, err := json.Marshal(entry.Extra); err == nil {
			extraStr = string(b)
		}
	}

	row := &models.SystemLog{
		Level:     level,
		Module:    entry.Module,
		Action:    entry.Action,
		Message:   entry.Message,
		UserID:    entry.UserID,
		TenantID:  entry.TenantID,
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	if err := globalDB.Create(row).Error; err != nil {
		logger.Errorf("[SystemLog] Failed to write audit log: %v", err)
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	TenantID  uint   `form:"tenant_id"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(ctx context.Context, req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.SystemLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.TenantID != 0 {
		query = query.Where("tenant_id = ?", req.TenantID)
	}
	if req.StartDate != "" {
		if start, err := time.Parse("2006-01-02", req.StartDate); err == nil {
			query = query.Where("created_at >= ?", start)
		}
	}
	if req.EndDate != "" {
		if end, err := time.Parse("2006-01-02", req.EndDate); err == nil {
			query = query.Where("created_at < ?", end.AddDate(0, 0, 1))
		}
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

func (s *SystemLogService) GetModules(ctx context.Context) ([]string, error) {
	var modules []string
	if err := s.db.WithContext(ctx).Model(&models.SystemLog{}).Distinct("module").Pluck("module", &modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// CleanupOldLogs deletes logs older than retentionDays and returns how many
// were removed.
func (s *SystemLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// LogCleanupSchedule runs the retention cleanup daily at 03:15 server time.
const LogCleanupSchedule = "15 3 * * *"

// StartLogCleanupScheduler runs one cleanup now and then on
// LogCleanupSchedule. The returned cron must be stopped on shutdown.
func StartLogCleanupScheduler(db *gorm.DB, retentionDays int) (*cron.Cron, error) {
	service := NewSystemLogService(db)
	if retentionDays <= 0 {
		logger.Infof("[SystemLog] Log cleanup disabled (retention_days <= 0)")
		return nil, nil
	}

	go runCleanup(db, service, retentionDays)

	c := cron.New()
	if _, err := c.AddFunc(LogCleanupSchedule, func() {
		runCleanup(db, service, retentionDays)
	}); err != nil {
		return nil, err
	}
	c.Start()
	logger.Infof("[SystemLog] Cleanup scheduled (%s), retention %d days", LogCleanupSchedule, retentionDays)
	return c, nil
}

const logCleanupJob = "system_log_cleanup"

// runCleanup runs at most once per day across all instances.
func runCleanup(db *gorm.DB, service *SystemLogService, retentionDays int) {
	claimed, err := claimRun(db, logCleanupJob, time.Now().UTC().Format("2006-01-02"), 48*time.Hour)
	if err != nil {
		logger.Errorf("[SystemLog] Failed to claim cleanup run: %v", err)
		return
	}
	if !claimed {
		logger.Debug().Msg("[SystemLog] Cleanup already done today by another instance")
		return
	}

	deleted, err := service.CleanupOldLogs(retentionDays)
	if err != nil {
		logger.Errorf("[SystemLog] Failed to cleanup old logs: %v", err)
		return
	}

	if deleted > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", deleted, retentionDays)
	}
}
