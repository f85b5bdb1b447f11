package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangang/reportportal/internal/models"
)

func TestSystemLog_WriteAndList(t *testing.T) {
	db := newTestDB(t)
	InitSystemLogger(db)
	t.Cleanup(func() { InitSystemLogger(nil) })

	uid, tid := uint(3), uint(9)
	LogInfo(AuditEntry{Module: "Report Weeks", Action: "Update", Message: "alice PUT ok", UserID: &uid, TenantID: &tid, Extra: map[string]int{"status": 200}})
	LogWarning(AuditEntry{Module: "Tenants", Action: "Create", Message: "bob POST failed"})

	svc := NewSystemLogService(db)
	ctx := context.Background()

	all, err := svc.List(ctx, &SystemLogListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, 20, all.PageSize)

	byTenant, err := svc.List(ctx, &SystemLogListRequest{TenantID: tid})
	require.NoError(t, err)
	require.Len(t, byTenant.Items, 1)
	assert.JSONEq(t, `{"status":200}`, byTenant.Items[0].Extra)

	byLevel, err := svc.List(ctx, &SystemLogListRequest{Level: "warning"})
	require.NoError(t, err)
	require.Len(t, byLevel.Items, 1)
	assert.Equal(t, "Tenants", byLevel.Items[0].Module)

	modules, err := svc.GetModules(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Report Weeks", "Tenants"}, modules)
}

func TestSystemLog_CleanupOldLogs(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	require.NoError(t, db.Create(&models.SystemLog{Level: "info", Module: "old", CreatedAt: time.Now().AddDate(0, 0, -45)}).Error)
	require.NoError(t, db.Create(&models.SystemLog{Level: "info", Module: "new", CreatedAt: time.Now().AddDate(0, 0, -1)}).Error)

	deleted, err := svc.CleanupOldLogs(0)
	require.NoError(t, err)
	assert.Zero(t, deleted, "retention 0 disables cleanup")

	deleted, err = svc.CleanupOldLogs(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestStartLogCleanupScheduler_Disabled(t *testing.T) {
	c, err := StartLogCleanupScheduler(newTestDB(t), 0)
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestClaimRun_OncePerKey(t *testing.T) {
	db := newTestDB(t)

	ok, err := claimRun(db, logCleanupJob, "2025-01-31", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = claimRun(db, logCleanupJob, "2025-01-31", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second replica must not run the same day")

	ok, err = claimRun(db, logCleanupJob, "2025-02-01", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClaimRun_ExpiredClaimIsPurged(t *testing.T) {
	db := newTestDB(t)

	ok, err := claimRun(db, logCleanupJob, "2025-01-31", -time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = claimRun(db, logCleanupJob, "2025-01-31", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunCleanup_SkipsWhenClaimed(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)
	require.NoError(t, db.Create(&models.SystemLog{Level: "info", Module: "old", CreatedAt: time.Now().AddDate(0, 0, -45)}).Error)

	_, err := claimRun(db, logCleanupJob, time.Now().UTC().Format("2006-01-02"), time.Hour)
	require.NoError(t, err)

	runCleanup(db, svc, 30)

	var count int64
	db.Model(&models.SystemLog{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
