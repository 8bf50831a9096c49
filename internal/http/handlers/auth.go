package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oelv/crm-funnel-backend/internal/http/response"
	"github.com/oelv/crm-funnel-backend/internal/platform/apierr"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
	"github.com/oelv/crm-funnel-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	token, expiresAt, err := h.authService.Login(req.Password)
	if err != nil {
		response.RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err), err)
		return
	}
	response.RespondOK(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	})
}
