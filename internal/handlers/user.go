package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/reportportal/internal/services"
	"github.com/huangang/reportportal/pkg/response"
)

type UserHandler struct {
	authService *services.AuthService
}

func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// List returns all users, or one tenant's users with ?tenant_id=.
func (h *UserHandler) List(c *gin.Context) {
	var tenantID *uint
	if raw := c.Query("tenant_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid tenant_id")
			return
		}
		tid := uint(id)
		tenantID = &tid
	}

	users, err := h.authService.ListUsers(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, users)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, user)
}
