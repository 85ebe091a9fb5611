package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/auth"
	"github.com/mrlokans/periodicals/internal/database"
	"github.com/mrlokans/periodicals/internal/entities"
)

// AccountController handles the session protocol and the caller's own profile.
type AccountController struct {
	service *auth.Service
	limiter *auth.RateLimiter
}

// NewAccountController creates a new AccountController. limiter may be nil.
func NewAccountController(service *auth.Service, limiter *auth.RateLimiter) *AccountController {
	return &AccountController{service: service, limiter: limiter}
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

// SignUp handles POST /api/auth/sign-up.
// Accounts created here are always readers; administrators come from the CLI.
func (ac *AccountController) SignUp(c *gin.Context) {
	var req auth.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Role = entities.UserRoleReader

	user, err := ac.service.SignUp(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err, "sign up")
		return
	}

	respondCreated(c, gin.H{
		"user":  user.Export(),
		"token": user.SessionToken,
	})
}

// SignIn handles POST /api/auth/sign-in.
func (ac *AccountController) SignIn(c *gin.Context) {
	var req signInRequest
	if !bindJSON(c, &req) {
		return
	}
	if ac.limiter != nil && !ac.limiter.Guard(c, req.Username) {
		return
	}

	token, err := ac.service.SignIn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if ac.limiter != nil && isCredentialFailure(err) {
			ac.limiter.RecordFailure(c.ClientIP(), req.Username)
		}
		respondDomainError(c, err, "sign in")
		return
	}
	if ac.limiter != nil {
		ac.limiter.RecordSuccess(c.ClientIP(), req.Username)
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// SignOut handles POST /api/auth/sign-out. The presented token stops resolving.
func (ac *AccountController) SignOut(c *gin.Context) {
	if _, err := ac.service.SignOut(c.Request.Context(), auth.GetToken(c)); err != nil {
		respondDomainError(c, err, "sign out")
		return
	}
	respondSuccess(c, "signed out")
}

// Me handles GET /api/me.
func (ac *AccountController) Me(c *gin.Context) {
	user := auth.GetUser(c)
	if user == nil {
		respondDomainError(c, database.ErrInvalidSession, "me")
		return
	}
	c.JSON(http.StatusOK, user.Export())
}

// UpdateProfile handles PUT /api/me.
func (ac *AccountController) UpdateProfile(c *gin.Context) {
	var patch auth.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}

	user, err := ac.service.UpdateProfile(c.Request.Context(), auth.GetToken(c), patch)
	if err != nil {
		respondDomainError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, user.Export())
}

// ChangePassword handles PUT /api/me/password.
func (ac *AccountController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ac.service.ChangePassword(c.Request.Context(), auth.GetToken(c), req.Password); err != nil {
		respondDomainError(c, err, "change password")
		return
	}
	respondSuccess(c, "password changed")
}

// DeleteAccount handles DELETE /api/me.
func (ac *AccountController) DeleteAccount(c *gin.Context) {
	if err := ac.service.DeleteAccount(c.Request.Context(), auth.GetToken(c)); err != nil {
		respondDomainError(c, err, "delete account")
		return
	}
	c.Status(http.StatusNoContent)
}

// isCredentialFailure reports whether err should count towards a sign-in lockout.
func isCredentialFailure(err error) bool {
	return errors.Is(err, database.ErrInvalidCredentials) || errors.Is(err, database.ErrNotFound)
}
