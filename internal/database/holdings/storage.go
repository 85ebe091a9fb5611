package holdings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
)

// ReceiveIssue records a physical issue of journalID arriving in storage.
func (l *Ledger) ReceiveIssue(ctx context.Context, journalID uint, year, volume, issue int) (*entities.Storage, error) {
	if year <= 0 || volume < 0 || issue <= 0 {
		return nil, fmt.Errorf("%w: year and issue must be positive, volume non-negative", database.ErrInvalidArgument)
	}

	item := &entities.Storage{
		JournalID: journalID,
		Year:      year,
		Volume:    volume,
		Issue:     issue,
	}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow[entities.Journal](tx, "journal", journalID); err != nil {
			return err
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to receive issue: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (l *Ledger) GetStorage(ctx context.Context, id uint) (*entities.Storage, error) {
	item, err := database.FindByID[entities.Storage](l.db.WithContext(ctx), id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to get storage %d: %w", id, err)
	}
	return item, err
}

// ListStorage returns the issues held for a journal in publication order.
func (l *Ledger) ListStorage(ctx context.Context, journalID uint) ([]entities.Storage, error) {
	var items []entities.Storage
	err := l.db.WithContext(ctx).
		Where("journal_id = ?", journalID).
		Order("year ASC, volume ASC, issue ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list storage: %w", err)
	}
	return items, nil
}

// RemoveIssue deletes a storage item that has no catalogued articles and is
// not out on loan.
func (l *Ledger) RemoveIssue(ctx context.Context, id uint) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := database.Exists[entities.Storage](tx, id)
		if err != nil {
			return fmt.Errorf("failed to check storage %d: %w", id, err)
		}
		if !exists {
			return database.ErrNotFound
		}

		var articles, open int64
		if err := tx.Model(&entities.Article{}).Where("storage_id = ?", id).Count(&articles).Error; err != nil {
			return fmt.Errorf("failed to count articles: %w", err)
		}
		err = tx.Model(&entities.Borrowing{}).
			Where("storage_id = ? AND returned_at IS NULL", id).
			Count(&open).Error
		if err != nil {
			return fmt.Errorf("failed to count open borrowings: %w", err)
		}
		if articles > 0 || open > 0 {
			return fmt.Errorf("%w: storage %d has %d articles and %d open borrowings",
				database.ErrForeignKeyViolation, id, articles, open)
		}

		if err := tx.Delete(&entities.Storage{}, id).Error; err != nil {
			return fmt.Errorf("failed to remove storage %d: %w", id, err)
		}
		return nil
	})
}
