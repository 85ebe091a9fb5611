// Package holdings records what the library owns and who has it.
//
// A Ledger covers four tables: subscriptions (which journals are ordered for a
// year), storage (each physical issue received), articles (catalogued
// contents of an issue) and borrowings (loans of a storage item to a user).
// There are no schema-level foreign keys; every write checks the rows it
// refers to and fails with database.ErrForeignKeyViolation when one is missing.
package holdings

import (
	"time"

	"gorm.io/gorm"
)

// DefaultLoanPeriod applies when Options leaves the period unset.
const DefaultLoanPeriod = 30 * 24 * time.Hour

// Options tunes circulation policy.
type Options struct {
	// DefaultLoanPeriod is added to the borrow time when no due time is agreed.
	DefaultLoanPeriod time.Duration
	// EnforceSingleActiveLoan refuses a second open borrowing of one storage item.
	EnforceSingleActiveLoan bool
}

// CirculationLogger receives the outcome of every borrow and return.
type CirculationLogger interface {
	LogCirculation(userID uint, action string, borrowingID uint, err error)
}

// Ledger is the holdings directory.
type Ledger struct {
	db    *gorm.DB
	opts  Options
	now   func() time.Time
	audit CirculationLogger
}

// NewLedger creates a ledger over db.
func NewLedger(db *gorm.DB, opts Options) *Ledger {
	if opts.DefaultLoanPeriod <= 0 {
		opts.DefaultLoanPeriod = DefaultLoanPeriod
	}
	return &Ledger{
		db:   db,
		opts: opts,
		now:  time.Now,
	}
}

// WithClock returns a copy of the ledger that reads the current time from now.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	clone := *l
	clone.now = now
	return &clone
}

// SetAuditLogger attaches an audit trail. A nil logger disables auditing.
func (l *Ledger) SetAuditLogger(a CirculationLogger) {
	l.audit = a
}

// clock returns the current time in UTC so stored timestamps compare as text.
func (l *Ledger) clock() time.Time {
	return l.now().UTC()
}

// Now returns the ledger's current time, the reference point for due dates.
func (l *Ledger) Now() time.Time {
	return l.clock()
}
