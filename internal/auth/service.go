package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/periodicals/internal/config"
	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/database/users"
	"github.com/mrlokans/periodicals/internal/entities"
	"github.com/mrlokans/periodicals/internal/metrics"
	"github.com/mrlokans/periodicals/internal/validation"
)

// Audit actions recorded by the service.
const (
	ActionSignUp         = "sign_up"
	ActionSignIn         = "sign_in"
	ActionSignOut        = "sign_out"
	ActionChangePassword = "change_password"
	ActionDeleteAccount  = "delete_account"
)

// AuditLogger receives the outcome of every session-changing operation.
type AuditLogger interface {
	LogAuth(userID uint, action string, err error)
}

// SignUpRequest is the candidate account passed to SignUp.
type SignUpRequest struct {
	Username  string            `json:"username" validate:"required,max=100"`
	Nickname  string            `json:"nickname" validate:"required,max=100"`
	Password  string            `json:"password" validate:"required"`
	Role      entities.UserRole `json:"role" validate:"role"`
	FirstName string            `json:"first_name" validate:"max=100"`
	LastName  string            `json:"last_name" validate:"max=100"`
	Email     string            `json:"email" validate:"omitempty,email,max=255"`
	Phone     string            `json:"phone" validate:"max=50"`
}

// ProfilePatch holds the mutable profile fields. All of them are overwritten.
type ProfilePatch struct {
	Nickname  string `json:"nickname" validate:"required,max=100"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone" validate:"max=50"`
}

// Service is the user directory: account CRUD plus the session protocol.
// The session token lives on the user row and is rotated, never revoked.
type Service struct {
	db       *gorm.DB
	config   config.Auth
	validate *validation.Validator
	audit    AuditLogger
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		validate: validation.New(),
	}
}

// SetAuditLogger attaches an audit trail. A nil logger disables auditing.
func (s *Service) SetAuditLogger(a AuditLogger) {
	s.audit = a
}

// SignUp creates an account and opens its first session. Role defaults to reader.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*entities.User, error) {
	if req.Role == "" {
		req.Role = entities.UserRoleReader
	}
	if err := s.validate.Struct(&req); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		SessionToken: NewSessionToken(),
		Username:     req.Username,
		Nickname:     req.Nickname,
		PasswordHash: passwordHash,
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		exists, err := repo.UsernameExists(ctx, req.Username)
		if err != nil {
			return err
		}
		if exists {
			return database.ErrDuplicateUsername
		}
		return repo.Create(ctx, user)
	})
	s.record(ActionSignUp, user.ID, err)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SignIn verifies the credentials and rotates the session token. A failed
// attempt leaves the stored token untouched.
func (s *Service) SignIn(ctx context.Context, username, password string) (string, error) {
	var (
		userID uint
		token  string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		user, err := repo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		userID = user.ID

		if err := CheckPassword(password, user.PasswordHash); err != nil {
			if errors.Is(err, ErrInvalidPassword) {
				return database.ErrInvalidCredentials
			}
			return fmt.Errorf("failed to verify password: %w", err)
		}

		token = NewSessionToken()
		return repo.UpdateColumns(ctx, user.ID, map[string]any{"session_token": token})
	})
	s.record(ActionSignIn, userID, err)
	if err != nil {
		return "", err
	}
	return token, nil
}

// SignOut invalidates token by rotating it. The replacement token is returned
// but is not meant to be handed to the client.
func (s *Service) SignOut(ctx context.Context, token string) (string, error) {
	var (
		userID uint
		next   string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		user, err := resolveSession(ctx, repo, token)
		if err != nil {
			return err
		}
		userID = user.ID
		next = NewSessionToken()
		return repo.UpdateColumns(ctx, user.ID, map[string]any{"session_token": next})
	})
	s.record(ActionSignOut, userID, err)
	if err != nil {
		return "", err
	}
	return next, nil
}

// GetBySession returns the user currently holding token.
func (s *Service) GetBySession(ctx context.Context, token string) (*entities.User, error) {
	return resolveSession(ctx, users.NewRepository(s.db), token)
}

// GetByUsername retrieves a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return users.NewRepository(s.db).GetByUsername(ctx, username)
}

// GetByID retrieves a user by their ID.
func (s *Service) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	return users.NewRepository(s.db).GetByID(ctx, id)
}

// UpdateProfile overwrites the acting user's mutable profile fields. Username,
// password, role and ID cannot change through this path.
func (s *Service) UpdateProfile(ctx context.Context, token string, patch ProfilePatch) (*entities.User, error) {
	if err := s.validate.Struct(&patch); err != nil {
		return nil, err
	}

	var updated *entities.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		user, err := resolveSession(ctx, repo, token)
		if err != nil {
			return err
		}

		user.Nickname = patch.Nickname
		user.FirstName = patch.FirstName
		user.LastName = patch.LastName
		user.Email = patch.Email
		user.Phone = patch.Phone

		err = repo.UpdateColumns(ctx, user.ID, map[string]any{
			"nickname":   user.Nickname,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"email":      user.Email,
			"phone":      user.Phone,
		})
		updated = user
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword re-hashes the acting user's password. The session token is kept.
func (s *Service) ChangePassword(ctx context.Context, token, newPassword string) error {
	passwordHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if errors.Is(err, ErrPasswordRequired) {
		return &validation.Error{Fields: map[string]string{"password": "is required"}}
	}
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var userID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		user, err := resolveSession(ctx, repo, token)
		if err != nil {
			return err
		}
		userID = user.ID
		return repo.UpdateColumns(ctx, user.ID, map[string]any{"password_hash": passwordHash})
	})
	s.record(ActionChangePassword, userID, err)
	return err
}

// DeleteAccount removes the acting user. Accounts holding open borrowings are kept.
func (s *Service) DeleteAccount(ctx context.Context, token string) error {
	var userID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		user, err := resolveSession(ctx, repo, token)
		if err != nil {
			return err
		}
		userID = user.ID

		var open int64
		err = tx.Model(&entities.Borrowing{}).
			Where("user_id = ? AND returned_at IS NULL", user.ID).
			Count(&open).Error
		if err != nil {
			return fmt.Errorf("failed to count open borrowings: %w", err)
		}
		if open > 0 {
			return fmt.Errorf("%w: user has %d open borrowings", database.ErrInvalidArgument, open)
		}
		return repo.Delete(ctx, user.ID)
	})
	s.record(ActionDeleteAccount, userID, err)
	return err
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Service) IsAdmin(ctx context.Context, token string) (bool, error) {
	user, err := s.GetBySession(ctx, token)
	if err != nil {
		return false, err
	}
	return user.Role == entities.UserRoleAdmin, nil
}

// IsReader reports whether the session belongs to a reader.
func (s *Service) IsReader(ctx context.Context, token string) (bool, error) {
	user, err := s.GetBySession(ctx, token)
	if err != nil {
		return false, err
	}
	return user.Role == entities.UserRoleReader, nil
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	count, err := users.NewRepository(s.db).Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) record(action string, userID uint, err error) {
	metrics.RecordAuth(action, err)
	if s.audit != nil {
		s.audit.LogAuth(userID, action, err)
	}
}

// resolveSession maps an unknown token to ErrInvalidSession.
func resolveSession(ctx context.Context, repo *users.Repository, token string) (*entities.User, error) {
	user, err := repo.GetBySessionToken(ctx, token)
	if errors.Is(err, database.ErrNotFound) {
		return nil, database.ErrInvalidSession
	}
	return user, err
}
