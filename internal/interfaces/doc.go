// Package interfaces documents the seams between the periodicals packages.
//
// # Interface Categories
//
// ## Audit Sinks
//
//   - AuditLogger: session outcomes from the user directory (internal/auth/service.go)
//   - CirculationLogger: borrow and return outcomes (internal/database/holdings/ledger.go)
//   - AuditEventCleaner: retention cleanup (internal/tasks/cleanup_audit.go)
//
// All three are satisfied by audit.Service, which writes asynchronously.
// Callers that need the rows on disk call Flush.
//
// ## Circulation
//
//   - OverdueSource: lazy walk over overdue borrowings (internal/tasks/overdue_scan.go)
//
// ## Scheduled Work
//
//   - Runner: starts the overdue scan and the audit cleanup (internal/scheduler/circulation.go)
//
// tasks.Client enqueues both jobs on the backlite queue. tasks.InlineRunner
// runs them in the calling goroutine and is used when the queue is disabled.
//
// # Adding a New Scheduled Job
//
//  1. Define the task and its processor in internal/tasks/:
//
//     type ReminderTask struct {
//         DaysBefore int `json:"days_before"`
//     }
//
//     func (t ReminderTask) Config() backlite.QueueConfig { ... }
//
//  2. Add an Enqueue method to Runner and implement it on both runners.
//
//  3. Register the cron entry in CirculationScheduler.Start.
//
// # Compile-Time Interface Checks
//
// Implementations are pinned in checks.go:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
package interfaces
