package http

import (
	"github.com/mrlokans/periodicals/internal/audit"
	"github.com/mrlokans/periodicals/internal/auth"
	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/database/holdings"
	"github.com/mrlokans/periodicals/internal/database/journals"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Journals *journals.Repository
	Ledger   *holdings.Ledger

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	RateLimiter    *auth.RateLimiter // optional; sign-in is unthrottled without it

	// Audit trail (optional)
	Audit *audit.Service

	// Background jobs (optional); enables the admin task triggers. Task state
	// lookups are served when it also implements TaskTracker.
	Tasks TaskTrigger

	// Send Strict-Transport-Security with this max-age when positive
	HSTSMaxAge int

	// Application info
	Version string
}
