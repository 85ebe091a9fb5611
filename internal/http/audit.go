package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/audit"
	"github.com/mrlokans/periodicals/internal/entities"
)

const (
	auditDefaultLimit = 25
	auditMaxLimit     = 100
)

// AuditController serves the audit trail to administrators.
type AuditController struct {
	audit *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{audit: auditService}
}

// List returns one page of audit events, newest first.
// GET /api/audit?page=&limit=&type=&user_id=&entity_type=&entity_id=&status=&since=
func (ac *AuditController) List(c *gin.Context) {
	filter, ok := parseAuditFilter(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(auditDefaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > auditMaxLimit {
		limit = auditDefaultLimit
	}
	offset := (page - 1) * limit

	events, total, err := ac.audit.Events(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       exportAll(events),
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+len(events)) < total,
		TotalPages: totalPages,
	})
}

// Get returns a single audit event.
// GET /api/audit/:id
func (ac *AuditController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := ac.audit.Event(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "audit event")
		return
	}
	c.JSON(http.StatusOK, event.Export())
}

// History lists every event recorded against one entity, oldest first.
// GET /api/audit/history/:entity/:id
func (ac *AuditController) History(c *gin.Context) {
	entityType := c.Param("entity")
	if !knownAuditEntity(entityType) {
		respondBadRequest(c, "unknown entity type "+strconv.Quote(entityType))
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	events, err := ac.audit.History(c.Request.Context(), entityType, id)
	if err != nil {
		respondInternalError(c, err, "audit history")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entity_type": entityType,
		"entity_id":   id,
		"events":      exportAll(events),
	})
}

func parseAuditFilter(c *gin.Context) (audit.Filter, bool) {
	var filter audit.Filter

	if raw := c.Query("type"); raw != "" {
		filter.EventType = entities.AuditEventType(raw)
		if !filter.EventType.Valid() {
			respondBadRequest(c, "unknown event type "+strconv.Quote(raw))
			return filter, false
		}
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = entities.AuditStatus(raw)
		if filter.Status != entities.AuditStatusSuccess && filter.Status != entities.AuditStatusFailed {
			respondBadRequest(c, "status must be success or failed")
			return filter, false
		}
	}
	if raw := c.Query("entity_type"); raw != "" {
		if !knownAuditEntity(raw) {
			respondBadRequest(c, "unknown entity type "+strconv.Quote(raw))
			return filter, false
		}
		filter.EntityType = raw
	}

	for name, dst := range map[string]*uint{"user_id": &filter.UserID, "entity_id": &filter.EntityID} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid "+name)
			return filter, false
		}
		*dst = uint(v)
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondBadRequest(c, "since must be an RFC 3339 timestamp")
			return filter, false
		}
		filter.Since = since
	}

	return filter, true
}

func knownAuditEntity(entityType string) bool {
	switch entityType {
	case entities.AuditEntityUser, entities.AuditEntityJournal, entities.AuditEntitySubscription,
		entities.AuditEntityStorage, entities.AuditEntityArticle, entities.AuditEntityBorrowing:
		return true
	}
	return false
}
