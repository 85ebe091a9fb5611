package holdings

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
	"github.com/mrlokans/periodicals/internal/metrics"
)

// Circulation audit actions.
const (
	ActionBorrow = "borrow"
	ActionReturn = "return"
)

// Borrow lends storage item storageID to userID until dueAt. A zero dueAt
// means the default loan period from now.
func (l *Ledger) Borrow(ctx context.Context, userID, storageID uint, dueAt time.Time) (*entities.Borrowing, error) {
	now := l.clock()
	if dueAt.IsZero() {
		dueAt = now.Add(l.opts.DefaultLoanPeriod)
	}
	dueAt = dueAt.UTC()

	borrowing := &entities.Borrowing{
		UserID:     userID,
		StorageID:  storageID,
		BorrowedAt: now,
		DueAt:      dueAt,
	}
	err := l.borrow(ctx, borrowing)
	l.record(userID, ActionBorrow, borrowing.ID, err)
	if err != nil {
		return nil, err
	}
	metrics.RecordBorrow()
	return borrowing, nil
}

func (l *Ledger) borrow(ctx context.Context, b *entities.Borrowing) error {
	if b.DueAt.Before(b.BorrowedAt) {
		return fmt.Errorf("%w: due time %s is in the past", database.ErrInvalidArgument, b.DueAt.Format(time.RFC3339))
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow[entities.User](tx, "user", b.UserID); err != nil {
			return err
		}
		if err := requireRow[entities.Storage](tx, "storage", b.StorageID); err != nil {
			return err
		}

		if l.opts.EnforceSingleActiveLoan {
			var open int64
			err := tx.Model(&entities.Borrowing{}).
				Where("storage_id = ? AND returned_at IS NULL", b.StorageID).
				Count(&open).Error
			if err != nil {
				return fmt.Errorf("failed to count open borrowings: %w", err)
			}
			if open > 0 {
				return database.ErrAlreadyBorrowed
			}
		}

		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("failed to create borrowing: %w", err)
		}
		return nil
	})
}

// Return closes an open borrowing. Of two concurrent returns only one succeeds;
// the other sees ErrAlreadyReturned.
func (l *Ledger) Return(ctx context.Context, borrowingID uint) (*entities.Borrowing, error) {
	var borrowing *entities.Borrowing
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := database.FindByID[entities.Borrowing](tx, borrowingID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return err
			}
			return fmt.Errorf("failed to get borrowing %d: %w", borrowingID, err)
		}
		if !b.IsOpen() {
			return database.ErrAlreadyReturned
		}

		returnedAt := l.clock()
		if returnedAt.Before(b.BorrowedAt) {
			returnedAt = b.BorrowedAt
		}

		result := tx.Model(&entities.Borrowing{}).
			Where("id = ? AND returned_at IS NULL", borrowingID).
			Update("returned_at", returnedAt)
		if result.Error != nil {
			return fmt.Errorf("failed to return borrowing %d: %w", borrowingID, result.Error)
		}
		if result.RowsAffected == 0 {
			return database.ErrAlreadyReturned
		}

		b.ReturnedAt = &returnedAt
		borrowing = b
		return nil
	})

	var userID uint
	if borrowing != nil {
		userID = borrowing.UserID
	}
	l.record(userID, ActionReturn, borrowingID, err)
	if err != nil {
		return nil, err
	}
	metrics.RecordReturn()
	return borrowing, nil
}

// Overdue yields open borrowings whose due time is before now, earliest due
// first. Rows are streamed from a cursor on every iteration of the sequence;
// breaking out of the loop closes it. Callers should not run other queries on
// a single-connection database while iterating.
func (l *Ledger) Overdue(ctx context.Context, now time.Time) iter.Seq2[entities.Borrowing, error] {
	return func(yield func(entities.Borrowing, error) bool) {
		db := l.db.WithContext(ctx)
		rows, err := db.Model(&entities.Borrowing{}).
			Where("returned_at IS NULL AND due_at < ?", now.UTC()).
			Order("due_at ASC, id ASC").
			Rows()
		if err != nil {
			yield(entities.Borrowing{}, fmt.Errorf("failed to query overdue borrowings: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var b entities.Borrowing
			if err := db.ScanRows(rows, &b); err != nil {
				yield(entities.Borrowing{}, fmt.Errorf("failed to scan borrowing: %w", err))
				return
			}
			if !yield(b, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(entities.Borrowing{}, fmt.Errorf("failed to read overdue borrowings: %w", err))
		}
	}
}

func (l *Ledger) GetBorrowing(ctx context.Context, id uint) (*entities.Borrowing, error) {
	b, err := database.FindByID[entities.Borrowing](l.db.WithContext(ctx), id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to get borrowing %d: %w", id, err)
	}
	return b, err
}

// ListBorrowingsForUser returns the user's borrowings, most recent first.
func (l *Ledger) ListBorrowingsForUser(ctx context.Context, userID uint, openOnly bool) ([]entities.Borrowing, error) {
	query := l.db.WithContext(ctx).Where("user_id = ?", userID)
	if openOnly {
		query = query.Where("returned_at IS NULL")
	}

	var borrowings []entities.Borrowing
	if err := query.Order("borrowed_at DESC, id DESC").Find(&borrowings).Error; err != nil {
		return nil, fmt.Errorf("failed to list borrowings: %w", err)
	}
	return borrowings, nil
}

func (l *Ledger) record(userID uint, action string, borrowingID uint, err error) {
	if l.audit != nil {
		l.audit.LogCirculation(userID, action, borrowingID, err)
	}
}
