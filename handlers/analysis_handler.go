package handlers

import (
	"VeggieMate/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterAnalysisRoutes sets up the analysis-related routes
func RegisterAnalysisRoutes(router *gin.RouterGroup, analysisController *controllers.AnalysisController) {
	analysisGroup := router.Group("/analysis")
	{
		analysisGroup.POST("", analysisController.AnalyzeRestaurant)
		analysisGroup.POST("/", analysisController.AnalyzeRestaurant)
		analysisGroup.POST("/batch", analysisController.AnalyzeSelection)
	}
}
