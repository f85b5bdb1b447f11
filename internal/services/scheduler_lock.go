package services

import (
	"os"
	"strconv"
	"time"

	"github.com/huangang/reportportal/internal/models"
	"gorm.io/gorm"
)

// instanceName identifies this process in scheduler_locks.
func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + ":" + strconv.Itoa(os.Getpid())
}

// claimRun reports whether this instance may run job for key. The first
// insert wins; the unique (lock_name, lock_key) index turns every later
// attempt into a constraint violation. Expired claims are purged first.
func claimRun(db *gorm.DB, job, key string, ttl time.Duration) (bool, error) {
	now := time.Now()
	if err := db.Where("lock_name = ? AND expires_at < ?", job, now).Delete(&models.SchedulerLock{}).Error; err != nil {
		return false, err
	}

	claim := models.SchedulerLock{
		LockName:  job,
		LockKey:   key,
		LockedBy:  instanceName(),
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.Create(&claim).Error; err != nil {
		if isConstraintViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
