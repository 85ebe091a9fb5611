// Package scheduler triggers periodic circulation housekeeping on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// AuditCleanupSchedule runs the audit retention sweep daily at 03:00.
const AuditCleanupSchedule = "0 3 * * *"

// jobTimeout bounds a single scheduled run.
const jobTimeout = 5 * time.Minute

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Runner starts the scheduled jobs. The task queue client enqueues them;
// tasks.InlineRunner executes them in place.
type Runner interface {
	EnqueueOverdueScan(ctx context.Context) error
	EnqueueAuditCleanup(ctx context.Context) error
}

// CirculationScheduler fires the overdue scan and the audit cleanup.
type CirculationScheduler struct {
	runner          Runner
	overdueSchedule string
	auditSchedule   string

	cron      *cron.Cron
	overdueID cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	monitor   sync.WaitGroup
}

// NewCirculationScheduler creates a scheduler. An empty auditSchedule
// disables the audit cleanup entry.
func NewCirculationScheduler(runner Runner, overdueSchedule, auditSchedule string) *CirculationScheduler {
	return &CirculationScheduler{
		runner:          runner,
		overdueSchedule: overdueSchedule,
		auditSchedule:   auditSchedule,
		cron:            cron.New(cron.WithParser(parser)),
	}
}

// Start registers the jobs and begins the cron loop. It stops by itself when
// ctx is cancelled.
func (s *CirculationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.overdueSchedule); err != nil {
		return fmt.Errorf("invalid overdue schedule '%s': %w", s.overdueSchedule, err)
	}

	// A restarted scheduler gets fresh entries.
	s.cron = cron.New(cron.WithParser(parser))
	s.ctx, s.cancel = context.WithCancel(ctx)

	jobCtx := s.ctx
	overdueID, err := s.cron.AddFunc(s.overdueSchedule, func() {
		run(jobCtx, "overdue scan", s.runner.EnqueueOverdueScan)
	})
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to schedule overdue scan: %w", err)
	}
	s.overdueID = overdueID

	if s.auditSchedule != "" {
		_, err := s.cron.AddFunc(s.auditSchedule, func() {
			run(jobCtx, "audit cleanup", s.runner.EnqueueAuditCleanup)
		})
		if err != nil {
			s.cancel()
			return fmt.Errorf("failed to schedule audit cleanup: %w", err)
		}
	}

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := GetNextRunTime(s.overdueSchedule)
	log.Printf("Overdue scheduler: started with schedule '%s' (%s). Next run: %v",
		s.overdueSchedule, GetCronDescription(s.overdueSchedule), nextRun)

	// Monitor for context cancellation
	s.monitor.Add(1)
	go func(done <-chan struct{}) {
		defer s.monitor.Done()
		<-done
		s.Stop()
	}(s.ctx.Done())

	return nil
}

// Stop waits for running jobs and halts the scheduler.
func (s *CirculationScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	<-s.cron.Stop().Done()

	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	log.Printf("Overdue scheduler: stopped")
}

// Wait blocks until the cancellation monitor has exited. Call after Stop.
func (s *CirculationScheduler) Wait() {
	s.monitor.Wait()
}

// RunNow triggers an immediate overdue scan.
func (s *CirculationScheduler) RunNow(ctx context.Context) error {
	return s.runner.EnqueueOverdueScan(ctx)
}

// IsRunning returns whether the scheduler is active
func (s *CirculationScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextOverdueScan returns when the next overdue scan will occur
func (s *CirculationScheduler) NextOverdueScan() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.overdueID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

func run(parent context.Context, name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	if err := job(ctx); err != nil {
		log.Printf("Overdue scheduler: %s failed: %v", name, err)
		return
	}
	log.Printf("Overdue scheduler: %s triggered", name)
}

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 8 * * *":
		return "Daily at 08:00"
	case "0 8 * * 1":
		return "Weekly on Monday at 08:00"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next run will happen based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
