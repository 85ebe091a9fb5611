package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/periodicals/internal/metrics"
)

// AuditEventCleaner deletes audit events older than a retention window.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

var errNoCleaner = errors.New("audit event cleaner not configured")

// AuditCleanupTask trims the audit trail. Sign-in, circulation and catalog
// events older than RetentionDays are removed; zero uses the default window.
type AuditCleanupTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t AuditCleanupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "audit_cleanup",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PurgeAuditEvents removes events older than days and reports how many went.
func PurgeAuditEvents(cleaner AuditEventCleaner, days int) (int64, error) {
	if cleaner == nil {
		return 0, errNoCleaner
	}
	if days <= 0 {
		days = DefaultConfig().AuditRetentionDays
	}

	deleted, err := cleaner.DeleteOldEvents(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		return 0, fmt.Errorf("purge audit events older than %d days: %w", days, err)
	}
	metrics.AddAuditEventsPurged(deleted)
	return deleted, nil
}

// AuditCleanupProcessor runs AuditCleanupTask against cleaner.
func AuditCleanupProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[AuditCleanupTask] {
	return func(_ context.Context, task AuditCleanupTask) error {
		deleted, err := PurgeAuditEvents(cleaner, task.RetentionDays)
		if err != nil {
			return err
		}
		if deleted > 0 {
			log.Printf("[TASK] Audit cleanup removed %d events", deleted)
		}
		return nil
	}
}

func NewAuditCleanupQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(AuditCleanupProcessor(cleaner))
}
