package interfaces

// This file contains compile-time interface implementation checks.
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/periodicals/internal/audit"
	"github.com/mrlokans/periodicals/internal/auth"
	"github.com/mrlokans/periodicals/internal/database/holdings"
	http_controllers "github.com/mrlokans/periodicals/internal/http"
	"github.com/mrlokans/periodicals/internal/scheduler"
	"github.com/mrlokans/periodicals/internal/tasks"
)

// =============================================================================
// Audit
// =============================================================================

var _ auth.AuditLogger = (*audit.Service)(nil)
var _ holdings.CirculationLogger = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Circulation
// =============================================================================

var _ tasks.OverdueSource = (*holdings.Ledger)(nil)

// =============================================================================
// Scheduled Work
// =============================================================================

var _ scheduler.Runner = (*tasks.Client)(nil)
var _ scheduler.Runner = tasks.InlineRunner{}

var _ http_controllers.TaskTrigger = (*tasks.Client)(nil)
var _ http_controllers.TaskTracker = (*tasks.Client)(nil)
var _ http_controllers.TaskTrigger = tasks.InlineRunner{}
