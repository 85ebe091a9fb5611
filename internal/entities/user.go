package entities

import "time"

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleReader UserRole = "reader"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r == UserRoleAdmin || r == UserRoleReader
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionToken string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Nickname     string    `gorm:"size:100;not null" json:"nickname"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null;default:'reader'" json:"role"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	Email        string    `gorm:"size:255" json:"email"`
	Phone        string    `gorm:"size:50" json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Export returns the public fields of the user. Credentials are never included.
func (u *User) Export() map[string]any {
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"nickname":   u.Nickname,
		"role":       string(u.Role),
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"phone":      u.Phone,
	}
}
