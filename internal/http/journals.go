package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/audit"
	"github.com/mrlokans/periodicals/internal/auth"
	"github.com/mrlokans/periodicals/internal/database/journals"
	"github.com/mrlokans/periodicals/internal/entities"
)

// JournalsController exposes the journal catalog.
type JournalsController struct {
	repo  *journals.Repository
	audit *audit.Service
}

// NewJournalsController creates a new JournalsController. auditService may be nil.
func NewJournalsController(repo *journals.Repository, auditService *audit.Service) *JournalsController {
	return &JournalsController{repo: repo, audit: auditService}
}

// List handles GET /api/journals?language=&frequency=&publisher=
func (jc *JournalsController) List(c *gin.Context) {
	found, err := jc.repo.List(c.Request.Context(), journals.Filter{
		Language:  c.Query("language"),
		Frequency: entities.Frequency(c.Query("frequency")),
		Publisher: c.Query("publisher"),
	})
	if err != nil {
		respondDomainError(c, err, "list journals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"journals": exportAll(found),
		"count":    len(found),
	})
}

// Get handles GET /api/journals/:id
func (jc *JournalsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	journal, err := jc.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "get journal")
		return
	}
	c.JSON(http.StatusOK, journal.Export())
}

// Lookup handles GET /api/journals/lookup with exactly one of issn, cn, postal or name.
func (jc *JournalsController) Lookup(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		journal *entities.Journal
		err     error
		given   int
	)
	for _, key := range []string{"issn", "cn", "postal", "name"} {
		if c.Query(key) != "" {
			given++
		}
	}
	if given != 1 {
		respondBadRequest(c, "exactly one of issn, cn, postal or name is required")
		return
	}

	switch {
	case c.Query("issn") != "":
		journal, err = jc.repo.GetByISSN(ctx, c.Query("issn"))
	case c.Query("cn") != "":
		journal, err = jc.repo.GetByCNCode(ctx, c.Query("cn"))
	case c.Query("postal") != "":
		journal, err = jc.repo.GetByPostalCode(ctx, c.Query("postal"))
	default:
		journal, err = jc.repo.GetByName(ctx, c.Query("name"))
	}
	if err != nil {
		respondDomainError(c, err, "lookup journal")
		return
	}
	c.JSON(http.StatusOK, journal.Export())
}

// Create handles POST /api/journals (admin)
func (jc *JournalsController) Create(c *gin.Context) {
	var journal entities.Journal
	if !bindJSON(c, &journal) {
		return
	}
	journal.ID = 0

	if err := jc.repo.Add(c.Request.Context(), &journal); err != nil {
		respondDomainError(c, err, "add journal")
		return
	}
	jc.logCatalog(c, "journal_add", journal.ID, journal.Name)
	respondCreated(c, journal.Export())
}

// Update handles PUT /api/journals/:id (admin). Every field is overwritten.
func (jc *JournalsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var journal entities.Journal
	if !bindJSON(c, &journal) {
		return
	}
	journal.ID = id

	if err := jc.repo.Update(c.Request.Context(), &journal); err != nil {
		respondDomainError(c, err, "update journal")
		return
	}
	jc.logCatalog(c, "journal_update", journal.ID, journal.Name)
	c.JSON(http.StatusOK, journal.Export())
}

// Delete handles DELETE /api/journals/:id (admin)
func (jc *JournalsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := jc.repo.Delete(c.Request.Context(), id); err != nil {
		respondDomainError(c, err, "delete journal")
		return
	}
	jc.logCatalog(c, "journal_delete", id, "")
	c.Status(http.StatusNoContent)
}

func (jc *JournalsController) logCatalog(c *gin.Context, action string, id uint, description string) {
	if jc.audit != nil {
		jc.audit.LogCatalog(auth.GetUserID(c), action, entities.AuditEntityJournal, id, description)
	}
}
