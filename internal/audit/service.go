// Package audit records who did what to accounts, the catalog and circulation.
package audit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/periodicals/internal/database/audit"
	"github.com/mrlokans/periodicals/internal/entities"
)

// Filter narrows an event listing.
type Filter = audit.Filter

// Service writes audit events in the background and answers queries over them.
type Service struct {
	repo    *audit.Repository
	now     func() time.Time
	pending sync.WaitGroup
}

type Option func(*Service)

// WithClock sets the time source used for retention cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo *audit.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores event synchronously.
func (s *Service) Record(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.Append(ctx, event)
}

// RecordAsync stores event on its own goroutine. Failures are logged.
func (s *Service) RecordAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.Append(context.Background(), event); err != nil {
			log.Printf("Failed to record audit event: %v", err)
		}
	}()
}

// Flush blocks until every event passed to RecordAsync has been written.
func (s *Service) Flush() {
	s.pending.Wait()
}

// LogAuth records a sign-up, sign-in, sign-out or credential change.
func (s *Service) LogAuth(userID uint, action string, err error) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventAuth,
		Action:     action,
		EntityType: entities.AuditEntityUser,
	}
	if userID > 0 {
		event.EntityID = &userID
	}
	s.RecordAsync(withOutcome(event, err))
}

// LogCirculation records a borrow or a return.
func (s *Service) LogCirculation(userID uint, action string, borrowingID uint, err error) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventCirculation,
		Action:     action,
		EntityType: entities.AuditEntityBorrowing,
	}
	if borrowingID > 0 {
		event.EntityID = &borrowingID
		event.Description = fmt.Sprintf("%s borrowing %d", action, borrowingID)
	}
	s.RecordAsync(withOutcome(event, err))
}

// LogCatalog records a change to a journal or holding made by userID.
func (s *Service) LogCatalog(userID uint, action, entityType string, entityID uint, description string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventCatalog,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  entityType,
	}
	if entityID > 0 {
		event.EntityID = &entityID
	}
	s.RecordAsync(withOutcome(event, nil))
}

// Events returns one page of events matching filter, newest first.
func (s *Service) Events(ctx context.Context, filter Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.Find(ctx, filter, limit, offset)
}

// Event returns a single event or database.ErrNotFound.
func (s *Service) Event(ctx context.Context, id uint) (*entities.AuditEvent, error) {
	return s.repo.Get(ctx, id)
}

// History lists what happened to one journal, holding, borrowing or user.
func (s *Service) History(ctx context.Context, entityType string, entityID uint) ([]entities.AuditEvent, error) {
	return s.repo.History(ctx, entityType, entityID)
}

// DeleteOldEvents removes events older than retention.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	return s.repo.Purge(context.Background(), s.now().Add(-retention))
}

func withOutcome(event *entities.AuditEvent, err error) *entities.AuditEvent {
	event.Status = entities.AuditStatusSuccess
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	return event
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
