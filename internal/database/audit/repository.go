package audit

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
)

const defaultPageSize = 50

// Filter narrows an event listing. Zero fields match every event.
type Filter struct {
	UserID     uint
	EventType  entities.AuditEventType
	EntityType string
	EntityID   uint
	Status     entities.AuditStatus
	Since      time.Time
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}
	return q
}

// Repository is the append-only audit_events table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append stores event, stamping it with the current UTC time when unset.
func (r *Repository) Append(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	// Timestamps compare as text in SQLite, so keep them in one zone.
	event.CreatedAt = event.CreatedAt.UTC()
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to append audit event %q: %w", event.Action, err)
	}
	return nil
}

// Find returns one page of matching events, newest first, and the number of
// matches across all pages.
func (r *Repository) Find(ctx context.Context, filter Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	query := filter.apply(r.db.WithContext(ctx).Model(&entities.AuditEvent{}))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var events []entities.AuditEvent
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, total, nil
}

// History returns every event recorded against one entity, oldest first.
func (r *Repository) History(ctx context.Context, entityType string, entityID uint) ([]entities.AuditEvent, error) {
	var events []entities.AuditEvent
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at, id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history of %s %d: %w", entityType, entityID, err)
	}
	return events, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.AuditEvent, error) {
	event, err := database.FindByID[entities.AuditEvent](r.db.WithContext(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("audit event %d: %w", id, err)
	}
	return event, nil
}

// Purge deletes events created before cutoff and reports how many went.
func (r *Repository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&entities.AuditEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge audit events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
