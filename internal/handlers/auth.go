// internal/handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/affilink/affiliate-backend/internal/services"
	"github.com/affilink/affiliate-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /v1/auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req services.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	token, err := h.authService.IssueToken(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}
		utils.InternalErrorResponse(c, "Failed to issue token")
		return
	}

	utils.SuccessResponse(c, gin.H{"token": token})
}
