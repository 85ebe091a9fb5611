package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Typed failures returned by every directory. Callers match them with errors.Is;
// raw driver errors never cross the directory boundary unwrapped.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidSession      = errors.New("invalid session")
	ErrForeignKeyViolation = errors.New("referenced record does not exist")
	ErrAlreadyReturned     = errors.New("borrowing already returned")
	ErrAlreadyBorrowed     = errors.New("item already borrowed")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInconsistent        = errors.New("uniqueness invariant violated")
)

// FindUnique loads the single row of T matching the condition. It fetches at most
// two rows: none yields ErrNotFound, two yields ErrInconsistent.
func FindUnique[T any](db *gorm.DB, query any, args ...any) (*T, error) {
	var rows []T
	if err := db.Where(query, args...).Limit(2).Find(&rows).Error; err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &rows[0], nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInconsistent, query)
	}
}

// FindByID loads T by primary key, mapping a missing row to ErrNotFound.
func FindByID[T any](db *gorm.DB, id uint) (*T, error) {
	var row T
	err := db.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Exists reports whether a row of T with the given primary key is present.
func Exists[T any](db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsDuplicate reports whether err is a unique-constraint violation from the driver.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
