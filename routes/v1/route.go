package route

import (
	"VeggieMate/controllers"
	"VeggieMate/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes initializes all routes
func RegisterRoutes(router *gin.Engine) {
	analysisController := controllers.NewAnalysisController()
	restaurantController := controllers.NewRestaurantController()
	reportController := controllers.NewReportController()
	ingredientController := controllers.NewIngredientController()

	v1Routes := router.Group("/v1")
	{
		handlers.RegisterAnalysisRoutes(v1Routes, analysisController)
		handlers.RegisterRestaurantRoutes(v1Routes, restaurantController)
		handlers.RegisterReportRoutes(v1Routes, reportController)
		handlers.RegisterIngredientRoutes(v1Routes, ingredientController)
	}
}
