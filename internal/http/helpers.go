package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/validation"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // per-field validation messages
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// Machine-readable error codes.
const (
	CodeNotFound       = "not_found"
	CodeDuplicate      = "duplicate"
	CodeUnauthorized   = "unauthorized"
	CodeForeignKey     = "foreign_key_violation"
	CodeConflict       = "conflict"
	CodeInvalidRequest = "invalid_argument"
	CodeInternal       = "internal"
)

// errorStatus maps a directory sentinel to its status code and error code.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{database.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{database.ErrDuplicateUsername, http.StatusConflict, CodeDuplicate},
	{database.ErrDuplicateKey, http.StatusConflict, CodeDuplicate},
	{database.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthorized},
	{database.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized},
	{database.ErrForeignKeyViolation, http.StatusUnprocessableEntity, CodeForeignKey},
	{database.ErrAlreadyReturned, http.StatusConflict, CodeConflict},
	{database.ErrAlreadyBorrowed, http.StatusConflict, CodeConflict},
	{database.ErrInvalidArgument, http.StatusBadRequest, CodeInvalidRequest},
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeInvalidRequest})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal})
}

// respondDomainError translates an error returned by a directory into a response.
// Unrecognised errors, ErrInconsistent included, are logged and reported as 500.
func respondDomainError(c *gin.Context, err error, context string) {
	for _, m := range errorStatus {
		if !errors.Is(err, m.err) {
			continue
		}
		resp := ErrorResponse{Error: err.Error(), Code: m.code}
		var verr *validation.Error
		if errors.As(err, &verr) {
			resp.Error = "validation failed"
			resp.Details = verr.Fields
		}
		c.JSON(m.status, resp)
		return
	}
	respondInternalError(c, err, context)
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response for work left to run in the background.
func respondAccepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, data)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body into dst, responding with 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBadRequest(c, "invalid request body")
		return false
	}
	return true
}

// exportAll converts a slice of entities into their wire representation.
func exportAll[T any, P interface {
	*T
	Export() map[string]any
}](items []T) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		out = append(out, P(&items[i]).Export())
	}
	return out
}
