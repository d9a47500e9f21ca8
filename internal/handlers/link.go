// internal/handlers/link.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/affilink/affiliate-backend/internal/services"
	"github.com/affilink/affiliate-backend/internal/utils"
)

type LinkHandler struct {
	linkService *services.LinkService
}

func NewLinkHandler(linkService *services.LinkService) *LinkHandler {
	return &LinkHandler{linkService: linkService}
}

// GET /v1/links
func (h *LinkHandler) GetLinks(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	links, total, err := h.linkService.GetLinks(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(links, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /v1/links
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req services.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	link, err := h.linkService.CreateLink(c.Request.Context(), &req)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "not found"):
			utils.NotFoundResponse(c, err.Error())
		case errors.Is(err, services.ErrTargetHostNotAllowed),
			errors.Is(err, services.ErrInvalidTargetURL):
			utils.BadRequestResponse(c, err.Error(), nil)
		case errors.Is(err, services.ErrCodeGenerationExhausted):
			utils.ConflictResponse(c, err.Error())
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, link)
}
