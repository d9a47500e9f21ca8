// internal/handlers/campaign.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/affilink/affiliate-backend/internal/services"
	"github.com/affilink/affiliate-backend/internal/utils"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
}

func NewCampaignHandler(campaignService *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// GET /v1/campaigns
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	campaigns, total, err := h.campaignService.GetCampaigns(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(campaigns, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /v1/campaigns
func (h *CampaignHandler) UpsertCampaign(c *gin.Context) {
	var req services.UpsertCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	campaign, err := h.campaignService.Upsert(c.Request.Context(), &req)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "not found"):
			utils.NotFoundResponse(c, err.Error())
		case errors.Is(err, services.ErrCampaignDemotion):
			utils.BadRequestResponse(c, err.Error(), nil)
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, campaign)
}

// GET /v1/campaigns/:id/landing
func (h *CampaignHandler) GetCampaignLanding(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid campaign ID", nil)
		return
	}

	landing, err := h.campaignService.GetLanding(id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "Campaign not found")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, landing)
}
