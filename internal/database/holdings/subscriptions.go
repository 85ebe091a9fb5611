package holdings

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
)

// AddSubscription orders journalID for year. Repeated subscriptions for the
// same journal and year are kept as separate rows.
func (l *Ledger) AddSubscription(ctx context.Context, journalID uint, year int) (*entities.Subscription, error) {
	if year <= 0 {
		return nil, fmt.Errorf("%w: year must be positive", database.ErrInvalidArgument)
	}

	sub := &entities.Subscription{JournalID: journalID, Year: year}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow[entities.Journal](tx, "journal", journalID); err != nil {
			return err
		}
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("failed to add subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (l *Ledger) RemoveSubscription(ctx context.Context, id uint) error {
	result := l.db.WithContext(ctx).Delete(&entities.Subscription{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to remove subscription %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ListSubscriptions returns the subscriptions of a journal, newest year first.
func (l *Ledger) ListSubscriptions(ctx context.Context, journalID uint) ([]entities.Subscription, error) {
	var subs []entities.Subscription
	err := l.db.WithContext(ctx).
		Where("journal_id = ?", journalID).
		Order("year DESC, id ASC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// requireRow fails with ErrForeignKeyViolation unless a T with id exists.
func requireRow[T any](tx *gorm.DB, what string, id uint) error {
	exists, err := database.Exists[T](tx, id)
	if err != nil {
		return fmt.Errorf("failed to check %s %d: %w", what, id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s %d", database.ErrForeignKeyViolation, what, id)
	}
	return nil
}
