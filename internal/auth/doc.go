// Package auth implements the user directory and its session protocol.
//
// Every account carries exactly one live session token. SignUp issues the
// first token; SignIn and SignOut replace it with a fresh one, so a token
// stops resolving as soon as the next session-changing call succeeds. There
// is no expiry beyond rotation.
//
// Passwords are stored as bcrypt(base64(sha256(password))). The SHA-256
// pre-digest keeps passwords longer than bcrypt's 72-byte limit distinct.
//
// # Configuration
//
//	AUTH_BCRYPT_COST=12            # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5      # failed sign-ins before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m     # window for counting failures
//	AUTH_LOCKOUT_DURATION=30m      # lockout length
//
// # Usage
//
//	authService := auth.NewService(db.DB, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService)
//	router.Use(authMiddleware.Handler())
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c)
package auth
