package controllers

import (
	"net/http"

	"VeggieMate/services"
	"VeggieMate/utils"

	"github.com/gin-gonic/gin"
)

// IngredientController exposes packaged-product lookups.
type IngredientController struct {
	IngredientService *services.IngredientService
}

// NewIngredientController initializes IngredientController
func NewIngredientController() *IngredientController {
	return &IngredientController{
		IngredientService: services.NewIngredientService(),
	}
}

// GetProductByBarcode looks a packaged product up on OpenFoodFacts and
// returns its vegetarian flags.
func (ctrl *IngredientController) GetProductByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	if barcode == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "barcode parameter is required")
		return
	}

	detail, err := ctrl.IngredientService.GetProductByBarcode(barcode)
	if err != nil {
		c.Error(err)
		return
	}
	if detail == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Product not found")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Product found", detail)
}
