// Package journals provides database operations for the journal catalog.
//
// Each journal is identified four independent ways: its name, ISSN, CN code
// and postal distribution code. All four are unique. Lookups by any of them
// fetch at most two rows so that a broken uniqueness invariant surfaces as
// database.ErrInconsistent instead of an arbitrary pick.
package journals

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
	"github.com/mrlokans/periodicals/internal/validation"
)

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Language  string
	Frequency entities.Frequency
	Publisher string
}

// Repository handles all journal database operations.
type Repository struct {
	db       *gorm.DB
	validate *validation.Validator
}

// NewRepository creates a new journals repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, validate: validation.New()}
}

// Add validates and inserts a journal, assigning its ID.
func (r *Repository) Add(ctx context.Context, journal *entities.Journal) error {
	if err := r.validate.Struct(journal); err != nil {
		return err
	}
	journal.ID = 0

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, journal); err != nil {
			return err
		}
		err := tx.Create(journal).Error
		if database.IsDuplicate(err) {
			return database.ErrDuplicateKey
		}
		if err != nil {
			return fmt.Errorf("failed to add journal: %w", err)
		}
		return nil
	})
}

// Update overwrites every column of the journal with journal.ID.
func (r *Repository) Update(ctx context.Context, journal *entities.Journal) error {
	if err := r.validate.Struct(journal); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := database.Exists[entities.Journal](tx, journal.ID)
		if err != nil {
			return fmt.Errorf("failed to check journal %d: %w", journal.ID, err)
		}
		if !exists {
			return database.ErrNotFound
		}
		if err := checkUnique(tx, journal); err != nil {
			return err
		}
		result := tx.Model(&entities.Journal{}).
			Where("id = ?", journal.ID).
			Select("*").
			Omit("id", "created_at").
			Updates(journal)
		if database.IsDuplicate(result.Error) {
			return database.ErrDuplicateKey
		}
		if result.Error != nil {
			return fmt.Errorf("failed to update journal %d: %w", journal.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

// Delete removes a journal that no subscription or storage row refers to.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := database.Exists[entities.Journal](tx, id)
		if err != nil {
			return fmt.Errorf("failed to check journal %d: %w", id, err)
		}
		if !exists {
			return database.ErrNotFound
		}

		for _, dependent := range []any{&entities.Subscription{}, &entities.Storage{}} {
			var count int64
			if err := tx.Model(dependent).Where("journal_id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count journal %d references: %w", id, err)
			}
			if count > 0 {
				return fmt.Errorf("%w: journal %d is still referenced", database.ErrForeignKeyViolation, id)
			}
		}

		if err := tx.Delete(&entities.Journal{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete journal %d: %w", id, err)
		}
		return nil
	})
}

// GetByID retrieves a journal by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Journal, error) {
	journal, err := database.FindByID[entities.Journal](r.db.WithContext(ctx), id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to get journal %d: %w", id, err)
	}
	return journal, err
}

func (r *Repository) GetByName(ctx context.Context, name string) (*entities.Journal, error) {
	return r.findUnique(ctx, "name = ?", name)
}

func (r *Repository) GetByISSN(ctx context.Context, issn string) (*entities.Journal, error) {
	return r.findUnique(ctx, "issn = ?", issn)
}

func (r *Repository) GetByCNCode(ctx context.Context, cnCode string) (*entities.Journal, error) {
	return r.findUnique(ctx, "cn_code = ?", cnCode)
}

func (r *Repository) GetByPostalCode(ctx context.Context, postalCode string) (*entities.Journal, error) {
	return r.findUnique(ctx, "postal_code = ?", postalCode)
}

// List returns the journals matching filter, ordered by name.
func (r *Repository) List(ctx context.Context, filter Filter) ([]entities.Journal, error) {
	query := r.db.WithContext(ctx).Model(&entities.Journal{})
	if filter.Language != "" {
		query = query.Where("language = ?", filter.Language)
	}
	if filter.Frequency != "" {
		query = query.Where("frequency = ?", filter.Frequency)
	}
	if filter.Publisher != "" {
		query = query.Where("publisher = ?", filter.Publisher)
	}

	var journals []entities.Journal
	if err := query.Order("name ASC").Find(&journals).Error; err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}
	return journals, nil
}

func (r *Repository) findUnique(ctx context.Context, query string, arg any) (*entities.Journal, error) {
	journal, err := database.FindUnique[entities.Journal](r.db.WithContext(ctx), query, arg)
	if err != nil && !errors.Is(err, database.ErrNotFound) && !errors.Is(err, database.ErrInconsistent) {
		return nil, fmt.Errorf("failed to find journal: %w", err)
	}
	return journal, err
}

// checkUnique fails with ErrDuplicateKey when another journal already holds
// any of the four identifying values.
func checkUnique(tx *gorm.DB, journal *entities.Journal) error {
	var count int64
	err := tx.Model(&entities.Journal{}).
		Where("name = ? OR issn = ? OR cn_code = ? OR postal_code = ?",
			journal.Name, journal.ISSN, journal.CNCode, journal.PostalCode).
		Where("id <> ?", journal.ID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check journal uniqueness: %w", err)
	}
	if count > 0 {
		return database.ErrDuplicateKey
	}
	return nil
}
