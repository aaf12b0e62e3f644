package controllers

import (
	"net/http"

	"VeggieMate/models"
	"VeggieMate/services"
	"VeggieMate/utils"

	"github.com/gin-gonic/gin"
)

// RestaurantController exposes restaurant discovery backed by the places
// provider.
type RestaurantController struct {
	PlaceService *services.PlaceService
}

// NewRestaurantController initializes RestaurantController
func NewRestaurantController() *RestaurantController {
	return &RestaurantController{
		PlaceService: services.NewPlaceService(),
	}
}

// SearchRequest represents the request payload for restaurant discovery.
type SearchRequest struct {
	Query           string  `json:"query"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	RadiusMeters    int     `json:"radius_meters"`
	IncludeWebsites bool    `json:"include_websites"`
}

// SearchRestaurants runs a text search when a query is given, otherwise a
// nearby search around the coordinates.
func (ctrl *RestaurantController) SearchRestaurants(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	var restaurants []models.Restaurant
	var err error

	if req.Query != "" {
		var location *models.GeoLocation
		if req.Latitude != 0 || req.Longitude != 0 {
			location = &models.GeoLocation{Latitude: req.Latitude, Longitude: req.Longitude}
		}
		restaurants, err = ctrl.PlaceService.TextSearch(c.Request.Context(), req.Query, location)
	} else {
		radius := req.RadiusMeters
		if radius <= 0 {
			radius = 1500
		}
		location := models.GeoLocation{Latitude: req.Latitude, Longitude: req.Longitude}
		restaurants, err = ctrl.PlaceService.NearbySearch(c.Request.Context(), location, radius)
	}
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Restaurant search failed")
		return
	}

	// The analysis pipeline starts from a website URL, which only the
	// details endpoint returns.
	if req.IncludeWebsites {
		for i := range restaurants {
			details, err := ctrl.PlaceService.Details(c.Request.Context(), restaurants[i].ID)
			if err == nil && details != nil {
				restaurants[i].Website = details.Website
			}
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Restaurants found", restaurants)
}

// GetRestaurantDetails returns website, phone and hours for one place.
func (ctrl *RestaurantController) GetRestaurantDetails(c *gin.Context) {
	placeID := c.Param("placeId")
	if placeID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "placeId parameter is required")
		return
	}

	details, err := ctrl.PlaceService.Details(c.Request.Context(), placeID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, "Place details lookup failed")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Place details found", details)
}
