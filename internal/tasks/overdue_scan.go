package tasks

import (
	"context"
	"fmt"
	"iter"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/periodicals/internal/entities"
	"github.com/mrlokans/periodicals/internal/metrics"
)

// OverdueSource lists open borrowings past their due time.
type OverdueSource interface {
	Overdue(ctx context.Context, now time.Time) iter.Seq2[entities.Borrowing, error]
}

// OverdueScanTask counts overdue borrowings and publishes the result.
type OverdueScanTask struct {
	// At fixes the reference time. Zero means the moment the task runs.
	At time.Time `json:"at,omitempty"`
}

// Config returns the queue configuration for overdue scans.
func (t OverdueScanTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_scan",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ScanOverdue walks every overdue borrowing at now, passing each to visit when
// it is non-nil, and updates the overdue gauge. It returns the number found.
func ScanOverdue(ctx context.Context, source OverdueSource, now time.Time, visit func(entities.Borrowing)) (int, error) {
	count := 0
	for b, err := range source.Overdue(ctx, now) {
		if err != nil {
			return count, fmt.Errorf("scan overdue borrowings: %w", err)
		}
		count++
		if visit != nil {
			visit(b)
		}
	}
	metrics.SetOverdue(count)
	return count, nil
}

// OverdueScanProcessor creates a processor function for OverdueScanTask.
func OverdueScanProcessor(source OverdueSource) backlite.QueueProcessor[OverdueScanTask] {
	return func(ctx context.Context, task OverdueScanTask) error {
		if source == nil {
			return fmt.Errorf("overdue source not configured")
		}

		now := task.At
		if now.IsZero() {
			now = time.Now()
		}

		count, err := ScanOverdue(ctx, source, now, func(b entities.Borrowing) {
			log.Printf("[TASK] Borrowing %d of storage %d by user %d was due %s",
				b.ID, b.StorageID, b.UserID, b.DueAt.Format(time.RFC3339))
		})
		if err != nil {
			return err
		}

		log.Printf("[TASK] Overdue scan found %d borrowings", count)
		return nil
	}
}

// NewOverdueScanQueue creates a backlite queue for overdue scans.
func NewOverdueScanQueue(source OverdueSource) backlite.Queue {
	return backlite.NewQueue(OverdueScanProcessor(source))
}

// InlineRunner performs scheduled work synchronously, for deployments that run
// without the task queue. Triggered jobs have finished by the time Trigger
// returns, so they get no task ID.
type InlineRunner struct {
	Source             OverdueSource
	Cleaner            AuditEventCleaner
	AuditRetentionDays int
}

func (r InlineRunner) Trigger(ctx context.Context, kind Kind) (string, error) {
	switch kind {
	case KindOverdueScan:
		return "", OverdueScanProcessor(r.Source)(ctx, OverdueScanTask{})
	case KindAuditCleanup:
		return "", AuditCleanupProcessor(r.Cleaner)(ctx, AuditCleanupTask{RetentionDays: r.AuditRetentionDays})
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func (r InlineRunner) EnqueueOverdueScan(ctx context.Context) error {
	_, err := r.Trigger(ctx, KindOverdueScan)
	return err
}

func (r InlineRunner) EnqueueAuditCleanup(ctx context.Context) error {
	_, err := r.Trigger(ctx, KindAuditCleanup)
	return err
}
