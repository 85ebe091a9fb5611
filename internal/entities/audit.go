package entities

import "time"

// AuditEventType groups audit events by the directory that produced them.
type AuditEventType string

const (
	AuditEventAuth        AuditEventType = "auth"
	AuditEventAccount     AuditEventType = "account"
	AuditEventCatalog     AuditEventType = "catalog"
	AuditEventCirculation AuditEventType = "circulation"
)

// Valid reports whether t is a known event type.
func (t AuditEventType) Valid() bool {
	switch t {
	case AuditEventAuth, AuditEventAccount, AuditEventCatalog, AuditEventCirculation:
		return true
	}
	return false
}

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// Entity types an audit event can point at.
const (
	AuditEntityUser         = "user"
	AuditEntityJournal      = "journal"
	AuditEntitySubscription = "subscription"
	AuditEntityStorage      = "storage"
	AuditEntityArticle      = "article"
	AuditEntityBorrowing    = "borrowing"
)

// AuditEvent is one append-only row of the audit trail.
type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`
	Description string         `gorm:"size:500" json:"description"`
	EntityType  string         `gorm:"index:idx_audit_entity;size:50" json:"entity_type"`
	EntityID    *uint          `gorm:"index:idx_audit_entity" json:"entity_id,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

func (e *AuditEvent) Export() map[string]any {
	out := map[string]any{
		"id":          e.ID,
		"user_id":     e.UserID,
		"event_type":  string(e.EventType),
		"action":      e.Action,
		"description": e.Description,
		"entity_type": e.EntityType,
		"status":      string(e.Status),
		"created_at":  e.CreatedAt,
	}
	if e.EntityID != nil {
		out["entity_id"] = *e.EntityID
	}
	if e.ErrorMsg != "" {
		out["error_msg"] = e.ErrorMsg
	}
	return out
}
