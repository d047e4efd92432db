package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kfhr/cashdesk-backend/internal/dto"
	"github.com/kfhr/cashdesk-backend/internal/http/handlers/common"
	"github.com/kfhr/cashdesk-backend/internal/models"
	"github.com/kfhr/cashdesk-backend/internal/service"
)

// AuthHandler exposes approver UI authentication.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, result)
}

// Register handles POST /api/auth/register. Admin only.
func (h *AuthHandler) Register(c *gin.Context) {
	role, err := common.CurrentUserRole(c)
	if err != nil || role != models.RoleAdmin {
		common.RespondError(c, http.StatusForbidden, "admin role required")
		return
	}

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, user)
}
