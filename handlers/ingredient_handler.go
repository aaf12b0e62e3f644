package handlers

import (
	"VeggieMate/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterIngredientRoutes sets up the packaged-product lookup routes
func RegisterIngredientRoutes(router *gin.RouterGroup, ingredientController *controllers.IngredientController) {
	ingredientGroup := router.Group("/ingredients")
	{
		ingredientGroup.GET("/:barcode", ingredientController.GetProductByBarcode)
	}
}
