package handlers

import (
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler exchanges client API tokens for JWTs.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type issueTokenRequest struct {
	Email    string `json:"email" binding:"required,email"`
	APIToken string `json:"api_token" binding:"required"`
}

// IssueToken handles POST /auth/token.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and api_token are required")
		return
	}
	token, client, err := h.authSvc.IssueToken(req.Email, req.APIToken)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":     token,
		"client_id": client.ID,
		"name":      client.Name,
	})
}
