package handlers

import (
	"VeggieMate/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterReportRoutes sets up the saved-report routes
func RegisterReportRoutes(router *gin.RouterGroup, reportController *controllers.ReportController) {
	reportGroup := router.Group("/reports")
	{
		reportGroup.GET("", reportController.ListReports)
		reportGroup.GET("/", reportController.ListReports)
		reportGroup.GET("/:restaurantId", reportController.GetReport)
	}
}
