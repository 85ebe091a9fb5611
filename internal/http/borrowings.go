package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/auth"
	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/database/holdings"
)

// BorrowingsController handles circulation: lending, returns and the overdue list.
type BorrowingsController struct {
	ledger *holdings.Ledger
}

// NewBorrowingsController creates a new BorrowingsController.
func NewBorrowingsController(ledger *holdings.Ledger) *BorrowingsController {
	return &BorrowingsController{ledger: ledger}
}

type borrowRequest struct {
	UserID    uint       `json:"user_id"`
	StorageID uint       `json:"storage_id"`
	DueAt     *time.Time `json:"due_at"` // RFC 3339; omitted means the default loan period
}

// Borrow handles POST /api/borrowings (admin)
func (bc *BorrowingsController) Borrow(c *gin.Context) {
	var req borrowRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UserID == 0 || req.StorageID == 0 {
		respondBadRequest(c, "user_id and storage_id are required")
		return
	}

	var dueAt time.Time
	if req.DueAt != nil {
		if req.DueAt.IsZero() {
			respondDomainError(c, fmt.Errorf("%w: due_at must be a real time", database.ErrInvalidArgument), "borrow")
			return
		}
		dueAt = *req.DueAt
	}

	borrowing, err := bc.ledger.Borrow(c.Request.Context(), req.UserID, req.StorageID, dueAt)
	if err != nil {
		respondDomainError(c, err, "borrow")
		return
	}
	respondCreated(c, borrowing.Export())
}

// Get handles GET /api/borrowings/:id (admin)
func (bc *BorrowingsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	borrowing, err := bc.ledger.GetBorrowing(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "get borrowing")
		return
	}
	c.JSON(http.StatusOK, borrowing.Export())
}

// Return handles POST /api/borrowings/:id/return (admin)
func (bc *BorrowingsController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	borrowing, err := bc.ledger.Return(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "return borrowing")
		return
	}
	c.JSON(http.StatusOK, borrowing.Export())
}

// Overdue handles GET /api/borrowings/overdue (admin)
func (bc *BorrowingsController) Overdue(c *gin.Context) {
	now := bc.ledger.Now()

	overdue := make([]map[string]any, 0)
	for b, err := range bc.ledger.Overdue(c.Request.Context(), now) {
		if err != nil {
			respondInternalError(c, err, "overdue borrowings")
			return
		}
		overdue = append(overdue, b.Export())
	}

	c.JSON(http.StatusOK, gin.H{
		"borrowings": overdue,
		"count":      len(overdue),
		"as_of":      now.Format(time.RFC3339),
	})
}

// Mine handles GET /api/me/borrowings?open=true
func (bc *BorrowingsController) Mine(c *gin.Context) {
	openOnly := c.Query("open") == "true"

	found, err := bc.ledger.ListBorrowingsForUser(c.Request.Context(), auth.GetUserID(c), openOnly)
	if err != nil {
		respondDomainError(c, err, "list borrowings")
		return
	}

	overdue := 0
	now := bc.ledger.Now()
	for i := range found {
		if found[i].IsOverdue(now) {
			overdue++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"borrowings": exportAll(found),
		"count":      len(found),
		"overdue":    overdue,
	})
}
