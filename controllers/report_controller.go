package controllers

import (
	"net/http"

	"VeggieMate/services"
	"VeggieMate/utils"

	"github.com/gin-gonic/gin"
)

// ReportController exposes the saved analysis reports.
type ReportController struct {
	ReportService *services.ReportService
}

// NewReportController initializes ReportController
func NewReportController() *ReportController {
	return &ReportController{
		ReportService: services.NewReportService(),
	}
}

// ListReports returns every saved analysis.
func (ctrl *ReportController) ListReports(c *gin.Context) {
	reports, err := ctrl.ReportService.ListAnalyses(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Reports found", reports)
}

// GetReport returns the latest saved analysis for one restaurant.
func (ctrl *ReportController) GetReport(c *gin.Context) {
	restaurantID := c.Param("restaurantId")
	if restaurantID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "restaurantId parameter is required")
		return
	}

	report, err := ctrl.ReportService.GetAnalysis(c.Request.Context(), restaurantID)
	if err != nil {
		c.Error(err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Report found", report)
}
