package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/periodicals/internal/auth"
)

func TestAccount_SessionFlow(t *testing.T) {
	srv := newTestServer(t)

	t1 := srv.signUp(t, "alice")

	w := srv.do(t, http.MethodGet, "/api/me", t1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "reader", me["role"])
	assert.NotContains(t, me, "password_hash")
	assert.NotContains(t, me, "session_token")

	w = srv.do(t, http.MethodPost, "/api/auth/sign-in", "", gin.H{"username": "alice", "password": "p@ss"})
	require.Equal(t, http.StatusOK, w.Code)
	t2 := decode(t, w)["token"].(string)
	assert.NotEqual(t, t1, t2)

	// The sign-up token was rotated away.
	w = srv.do(t, http.MethodGet, "/api/me", t1, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodPost, "/api/auth/sign-out", t2, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/me", t2, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccount_SignUpIgnoresRequestedRole(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/auth/sign-up", "", gin.H{
		"username": "mallory",
		"nickname": "Mallory",
		"password": "p@ss",
		"role":     "admin",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	user, ok := decode(t, w)["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "reader", user["role"])
}

func TestAccount_SignUpErrors(t *testing.T) {
	srv := newTestServer(t)
	srv.signUp(t, "alice")

	tests := []struct {
		name     string
		body     any
		want     int
		wantCode string
	}{
		{
			name:     "duplicate username",
			body:     gin.H{"username": "alice", "nickname": "Other", "password": "x"},
			want:     http.StatusConflict,
			wantCode: CodeDuplicate,
		},
		{
			name:     "missing nickname",
			body:     gin.H{"username": "bob", "password": "x"},
			want:     http.StatusBadRequest,
			wantCode: CodeInvalidRequest,
		},
		{
			name:     "malformed body",
			body:     "not an object",
			want:     http.StatusBadRequest,
			wantCode: CodeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/api/auth/sign-up", "", tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.wantCode, decode(t, w)["code"])
		})
	}
}

func TestAccount_SignUpValidationDetails(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/api/auth/sign-up", "", gin.H{
		"username": "bob",
		"password": "x",
		"email":    "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	details, ok := decode(t, w)["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "nickname")
	assert.Contains(t, details, "email")
}

func TestAccount_SignInErrors(t *testing.T) {
	srv := newTestServer(t)
	srv.signUp(t, "alice")

	w := srv.do(t, http.MethodPost, "/api/auth/sign-in", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodPost, "/api/auth/sign-in", "", gin.H{"username": "nobody", "password": "p@ss"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccount_SignInRateLimited(t *testing.T) {
	rl := auth.NewRateLimiter(auth.RateLimitConfig{
		MaxAttempts:     2,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
	})
	t.Cleanup(rl.Stop)

	srv := newTestServer(t, withRateLimiter(rl))
	srv.signUp(t, "alice")

	wrong := gin.H{"username": "alice", "password": "wrong"}
	for i := 0; i < 2; i++ {
		w := srv.do(t, http.MethodPost, "/api/auth/sign-in", "", wrong)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// Locked out even with the right password.
	w := srv.do(t, http.MethodPost, "/api/auth/sign-in", "", gin.H{"username": "alice", "password": "p@ss"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Other accounts are unaffected.
	w = srv.do(t, http.MethodPost, "/api/auth/sign-in", "", gin.H{"username": "admin", "password": "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccount_UpdateProfile(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signUp(t, "alice")

	w := srv.do(t, http.MethodPut, "/api/me", token, gin.H{
		"nickname":   "Al",
		"first_name": "Alice",
		"email":      "alice@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Al", decode(t, w)["nickname"])

	w = srv.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "Alice", me["first_name"])
	assert.Equal(t, "alice@example.com", me["email"])

	w = srv.do(t, http.MethodPut, "/api/me", token, gin.H{"nickname": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccount_ChangePassword(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signUp(t, "alice")

	w := srv.do(t, http.MethodPut, "/api/me/password", token, gin.H{"password": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPut, "/api/me/password", token, gin.H{"password": "n3w"})
	require.Equal(t, http.StatusOK, w.Code)

	// The current session survives.
	w = srv.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodPost, "/api/auth/sign-in", "", gin.H{"username": "alice", "password": "p@ss"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = srv.do(t, http.MethodPost, "/api/auth/sign-in", "", gin.H{"username": "alice", "password": "n3w"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccount_DeleteAccount(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signUp(t, "alice")

	w := srv.do(t, http.MethodDelete, "/api/me", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodPost, "/api/auth/sign-in", "", gin.H{"username": "alice", "password": "p@ss"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
