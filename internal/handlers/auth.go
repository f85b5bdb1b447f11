package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/middleware"
	"github.com/huangang/reportportal/internal/services"
	"github.com/huangang/reportportal/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.authFailure(c, err, req.Username)
		return
	}

	services.LogInfo(services.AuditEntry{
		Module:    "Auth",
		Action:    "Login",
		Message:   "[Auth] " + result.User.Username + " logged in",
		UserID:    &result.User.ID,
		TenantID:  result.User.TenantID,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	response.Success(c, result)
}

// Refresh exchanges a refresh token for a new token pair
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.authFailure(c, err, "")
		return
	}
	response.Success(c, result)
}

func (h *AuthHandler) authFailure(c *gin.Context, err error, username string) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidRefreshToken):
		if username != "" {
			services.LogWarning(services.AuditEntry{
				Module:    "Auth",
				Action:    "Login",
				Message:   "[Auth] Failed login for " + username,
				IP:        c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
			})
		}
		response.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrUserDisabled):
		response.Forbidden(c, err.Error())
	default:
		respondError(c, err)
	}
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// Logout revokes the refresh token when one is sent; the access token
// simply expires.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.authService.RevokeRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "logged out"})
}

// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.authService.ChangePassword(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "password changed"})
}
