package controllers

import (
	"log"
	"net/http"

	"VeggieMate/models"
	"VeggieMate/services"
	"VeggieMate/utils"

	"github.com/gin-gonic/gin"
)

// AnalysisController exposes the analysis pipeline over HTTP.
type AnalysisController struct {
	AnalysisService *services.AnalysisService
	ReportService   *services.ReportService
	Diagnostics     *utils.Diagnostics
}

// NewAnalysisController wires the full pipeline: AI provider, render backend,
// fetcher, locator, extractor, classifier, orchestrator.
func NewAnalysisController() *AnalysisController {
	diag := utils.NewDiagnostics(512)
	ai := services.NewOpenAIService(diag)
	renderer := services.NewRenderService()
	fetcher := services.NewFetchService(renderer, diag)
	locator := services.NewLocatorService(fetcher, ai, diag)
	extractor := services.NewExtractService(ai, diag)
	classifier := services.NewClassifyService(ai, diag)

	return &AnalysisController{
		AnalysisService: services.NewAnalysisService(locator, fetcher, extractor, classifier, services.NewPlaceService(), diag),
		ReportService:   services.NewReportService(),
		Diagnostics:     diag,
	}
}

// AnalyzeRequest is the payload for a single-restaurant analysis. Callers
// supply either the website URL or a place id to resolve it from.
type AnalyzeRequest struct {
	WebsiteURL     string  `json:"website_url"`
	PlaceID        string  `json:"place_id"`
	RestaurantID   string  `json:"restaurant_id"`
	RestaurantName string  `json:"restaurant_name"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// BatchAnalyzeRequest is the payload for a multi-restaurant analysis.
type BatchAnalyzeRequest struct {
	Restaurants []models.Restaurant `json:"restaurants" binding:"required"`
	MinCriteria string              `json:"min_criteria"`
}

// AnalyzeRestaurant runs the pipeline for one restaurant and persists the
// resulting report.
func (ctrl *AnalysisController) AnalyzeRestaurant(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Restaurant ids are Places ids, so either field can name the place.
	restaurantID := req.RestaurantID
	if restaurantID == "" {
		restaurantID = req.PlaceID
	}
	if req.WebsiteURL == "" && restaurantID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "website_url or place_id is required")
		return
	}

	analysis := ctrl.AnalysisService.ScrapeAndAnalyze(c.Request.Context(), req.WebsiteURL, restaurantID, req.RestaurantName)

	var location *models.GeoLocation
	if req.Latitude != 0 || req.Longitude != 0 {
		location = &models.GeoLocation{Latitude: req.Latitude, Longitude: req.Longitude}
	}
	if analysis.RestaurantID != "" {
		if err := ctrl.ReportService.SaveAnalysis(c.Request.Context(), analysis, location); err != nil {
			log.Printf("⚠️ failed to save report for %s: %v", analysis.RestaurantID, err)
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Analysis completed", analysis)
}

// AnalyzeSelection streams progress for a batch analysis over SSE: one
// analysis_progress event per restaurant transition, then analysis_done with
// the full report.
func (ctrl *AnalysisController) AnalyzeSelection(c *gin.Context) {
	var req BatchAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Selection size is validated before any network traffic or stream setup.
	if len(req.Restaurants) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.ErrSelectionEmpty.Error())
		return
	}
	if len(req.Restaurants) > services.MaxSelectionSize {
		utils.ErrorResponse(c, http.StatusBadRequest, utils.ErrSelectionTooLarge.Error())
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	progressChan := make(chan models.AnalysisProgress, services.MaxSelectionSize*2)
	doneChan := make(chan *models.BatchReport, 1)

	go func() {
		report, err := ctrl.AnalysisService.AnalyzeSelection(
			c.Request.Context(),
			req.Restaurants,
			models.ParseTier(req.MinCriteria),
			func(p models.AnalysisProgress) { progressChan <- p },
		)
		if err != nil {
			log.Printf("batch analysis failed: %v", err)
			report = &models.BatchReport{}
		}
		close(progressChan)
		doneChan <- report
	}()

	for {
		select {
		case progress, ok := <-progressChan:
			if !ok {
				progressChan = nil
			} else {
				c.SSEvent("analysis_progress", progress)
				c.Writer.Flush()
			}
		case report := <-doneChan:
			// Drain progress events still in flight before closing out.
			if progressChan != nil {
				for progress := range progressChan {
					c.SSEvent("analysis_progress", progress)
				}
			}
			for _, analysis := range report.Results {
				if analysis.RestaurantID == "" {
					continue
				}
				copied := analysis
				if err := ctrl.ReportService.SaveAnalysis(c.Request.Context(), &copied, nil); err != nil {
					log.Printf("⚠️ failed to save report for %s: %v", analysis.RestaurantID, err)
				}
			}
			c.SSEvent("analysis_done", gin.H{"statusCode": 200, "message": "Batch analysis completed", "data": report})
			c.Writer.Flush()
			return
		}
	}
}
