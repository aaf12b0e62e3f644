package handlers

import (
	"VeggieMate/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterRestaurantRoutes sets up the restaurant discovery routes
func RegisterRestaurantRoutes(router *gin.RouterGroup, restaurantController *controllers.RestaurantController) {
	restaurantGroup := router.Group("/restaurants")
	{
		restaurantGroup.POST("/search", restaurantController.SearchRestaurants)
		restaurantGroup.GET("/:placeId/details", restaurantController.GetRestaurantDetails)
	}
}
