// internal/handlers/analytics.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/affilink/affiliate-backend/internal/services"
	"github.com/affilink/affiliate-backend/internal/utils"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GET /v1/dashboard
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	snapshot, err := h.analyticsService.GetDashboardSnapshot()
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to build dashboard")
		return
	}

	utils.SuccessResponse(c, snapshot)
}
