package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		cost     int
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "p@ss",
			cost:     bcrypt.MinCost,
			wantErr:  nil,
		},
		{
			name:     "empty password",
			password: "",
			cost:     bcrypt.MinCost,
			wantErr:  ErrPasswordRequired,
		},
		{
			name:     "password longer than bcrypt input limit",
			password: strings.Repeat("a", 200),
			cost:     bcrypt.MinCost,
			wantErr:  nil,
		},
		{
			name:     "out of range cost falls back to default",
			password: "p@ss",
			cost:     0,
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, tt.cost)
			if err != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr != nil {
				return
			}
			if hash == "" {
				t.Error("HashPassword() returned empty hash for valid password")
			}
			if hash == tt.password {
				t.Error("HashPassword() returned the raw password")
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "correct password",
			password: password,
			wantErr:  nil,
		},
		{
			name:     "incorrect password",
			password: "wrongpassword",
			wantErr:  ErrInvalidPassword,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  ErrInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPassword(tt.password, hash)
			if err != tt.wantErr {
				t.Errorf("CheckPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckPassword_LongPasswordsDiffer(t *testing.T) {
	// Without the digest step bcrypt would ignore everything after byte 72.
	prefix := strings.Repeat("x", 80)
	hash, err := HashPassword(prefix+"a", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if err := CheckPassword(prefix+"b", hash); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() error = %v, want %v", err, ErrInvalidPassword)
	}
}

func TestCheckPassword_PlainBcryptIsRejected(t *testing.T) {
	// A hash of the raw password (no digest) must not verify.
	raw, err := bcrypt.GenerateFromPassword([]byte("p@ss"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}

	if err := CheckPassword("p@ss", string(raw)); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() error = %v, want %v", err, ErrInvalidPassword)
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	err := CheckPassword("p@ss", "not-a-bcrypt-hash")
	if err == nil || err == ErrInvalidPassword {
		t.Errorf("CheckPassword() error = %v, want a hash format error", err)
	}
}

func TestNewSessionToken(t *testing.T) {
	a := NewSessionToken()
	b := NewSessionToken()

	if len(a) != 36 {
		t.Errorf("token length = %d, want 36", len(a))
	}
	if a == b {
		t.Error("Generated tokens should be unique")
	}
}
