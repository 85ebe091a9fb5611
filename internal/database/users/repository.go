// Package users provides database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetBySessionToken(ctx, token)
//
// The repository works equally on a transaction handle, which is how the auth
// service wraps its read-modify-write sequences:
//
//	db.Transaction(func(tx *gorm.DB) error {
//		repo := users.NewRepository(tx)
//		...
//	})
package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. A username or token collision is reported as
// ErrDuplicateUsername.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if database.IsDuplicate(err) {
		return database.ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Save persists every column of an existing user.
func (r *Repository) Save(ctx context.Context, user *entities.User) error {
	err := r.db.WithContext(ctx).Save(user).Error
	if database.IsDuplicate(err) {
		return database.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to save user %d: %w", user.ID, err)
	}
	return nil
}

// UpdateColumns writes only the given columns for the user with id.
func (r *Repository) UpdateColumns(ctx context.Context, id uint, columns map[string]any) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Updates(columns)
	if database.IsDuplicate(result.Error) {
		return database.ErrDuplicateKey
	}
	if result.Error != nil {
		return fmt.Errorf("failed to update user %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := database.FindByID[entities.User](r.db.WithContext(ctx), id)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, err
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findUnique(ctx, "username = ?", username)
}

// GetBySessionToken retrieves the user currently holding token.
func (r *Repository) GetBySessionToken(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, database.ErrNotFound
	}
	return r.findUnique(ctx, "session_token = ?", token)
}

// UsernameExists reports whether any user has the given username.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// Count returns the number of users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

// Delete removes the user with id.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *Repository) findUnique(ctx context.Context, query string, arg any) (*entities.User, error) {
	user, err := database.FindUnique[entities.User](r.db.WithContext(ctx), query, arg)
	if err != nil && !errors.Is(err, database.ErrNotFound) && !errors.Is(err, database.ErrInconsistent) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, err
}
