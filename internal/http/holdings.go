package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/audit"
	"github.com/mrlokans/periodicals/internal/auth"
	"github.com/mrlokans/periodicals/internal/database/holdings"
	"github.com/mrlokans/periodicals/internal/entities"
)

// HoldingsController exposes subscriptions, received issues and their articles.
type HoldingsController struct {
	ledger *holdings.Ledger
	audit  *audit.Service
}

// NewHoldingsController creates a new HoldingsController. auditService may be nil.
func NewHoldingsController(ledger *holdings.Ledger, auditService *audit.Service) *HoldingsController {
	return &HoldingsController{ledger: ledger, audit: auditService}
}

type subscriptionRequest struct {
	Year int `json:"year"`
}

type receiveIssueRequest struct {
	Year   int `json:"year"`
	Volume int `json:"volume"`
	Issue  int `json:"issue"`
}

// ListSubscriptions handles GET /api/journals/:id/subscriptions
func (hc *HoldingsController) ListSubscriptions(c *gin.Context) {
	journalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	subs, err := hc.ledger.ListSubscriptions(c.Request.Context(), journalID)
	if err != nil {
		respondDomainError(c, err, "list subscriptions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": exportAll(subs)})
}

// AddSubscription handles POST /api/journals/:id/subscriptions (admin)
func (hc *HoldingsController) AddSubscription(c *gin.Context) {
	journalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req subscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := hc.ledger.AddSubscription(c.Request.Context(), journalID, req.Year)
	if err != nil {
		respondDomainError(c, err, "add subscription")
		return
	}
	hc.logCatalog(c, "subscription_add", entities.AuditEntitySubscription, sub.ID, fmt.Sprintf("journal %d, %d", journalID, req.Year))
	respondCreated(c, sub.Export())
}

// RemoveSubscription handles DELETE /api/subscriptions/:id (admin)
func (hc *HoldingsController) RemoveSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := hc.ledger.RemoveSubscription(c.Request.Context(), id); err != nil {
		respondDomainError(c, err, "remove subscription")
		return
	}
	hc.logCatalog(c, "subscription_remove", entities.AuditEntitySubscription, id, "")
	c.Status(http.StatusNoContent)
}

// ListStorage handles GET /api/journals/:id/storage
func (hc *HoldingsController) ListStorage(c *gin.Context) {
	journalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := hc.ledger.ListStorage(c.Request.Context(), journalID)
	if err != nil {
		respondDomainError(c, err, "list storage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"storage": exportAll(items)})
}

// ReceiveIssue handles POST /api/journals/:id/storage (admin)
func (hc *HoldingsController) ReceiveIssue(c *gin.Context) {
	journalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req receiveIssueRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := hc.ledger.ReceiveIssue(c.Request.Context(), journalID, req.Year, req.Volume, req.Issue)
	if err != nil {
		respondDomainError(c, err, "receive issue")
		return
	}
	hc.logCatalog(c, "issue_receive", entities.AuditEntityStorage, item.ID,
		fmt.Sprintf("journal %d, %d vol. %d no. %d", journalID, req.Year, req.Volume, req.Issue))
	respondCreated(c, item.Export())
}

// GetStorage handles GET /api/storage/:id
func (hc *HoldingsController) GetStorage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := hc.ledger.GetStorage(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "get storage")
		return
	}
	c.JSON(http.StatusOK, item.Export())
}

// RemoveIssue handles DELETE /api/storage/:id (admin)
func (hc *HoldingsController) RemoveIssue(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := hc.ledger.RemoveIssue(c.Request.Context(), id); err != nil {
		respondDomainError(c, err, "remove issue")
		return
	}
	hc.logCatalog(c, "issue_remove", entities.AuditEntityStorage, id, "")
	c.Status(http.StatusNoContent)
}

// CatalogArticle handles POST /api/storage/:id/articles (admin)
func (hc *HoldingsController) CatalogArticle(c *gin.Context) {
	storageID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in holdings.ArticleInput
	if !bindJSON(c, &in) {
		return
	}

	article, err := hc.ledger.CatalogArticle(c.Request.Context(), storageID, in)
	if err != nil {
		respondDomainError(c, err, "catalog article")
		return
	}
	hc.logCatalog(c, "article_add", entities.AuditEntityArticle, article.ID, article.Title)
	respondCreated(c, article.Export())
}

// FindArticles handles GET /api/articles?keyword=
func (hc *HoldingsController) FindArticles(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		respondBadRequest(c, "keyword is required")
		return
	}

	found, err := hc.ledger.FindArticlesByKeyword(c.Request.Context(), keyword)
	if err != nil {
		respondDomainError(c, err, "find articles")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles": exportAll(found),
		"count":    len(found),
	})
}

// GetArticle handles GET /api/articles/:id
func (hc *HoldingsController) GetArticle(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	article, err := hc.ledger.GetArticle(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "get article")
		return
	}
	c.JSON(http.StatusOK, article.Export())
}

// DeleteArticle handles DELETE /api/articles/:id (admin)
func (hc *HoldingsController) DeleteArticle(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := hc.ledger.DeleteArticle(c.Request.Context(), id); err != nil {
		respondDomainError(c, err, "delete article")
		return
	}
	hc.logCatalog(c, "article_delete", entities.AuditEntityArticle, id, "")
	c.Status(http.StatusNoContent)
}

func (hc *HoldingsController) logCatalog(c *gin.Context, action, entityType string, id uint, description string) {
	if hc.audit != nil {
		hc.audit.LogCatalog(auth.GetUserID(c), action, entityType, id, description)
	}
}
