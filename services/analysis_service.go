package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"VeggieMate/config/environment"
	"VeggieMate/models"
	"VeggieMate/utils"
)

// MaxSelectionSize caps how many restaurants one batch analysis may carry.
const MaxSelectionSize = 5

// MenuLocator, ItemExtractor and ItemClassifier are the pipeline stages seen
// from the orchestrator's side; tests substitute fakes.
type MenuLocator interface {
	Locate(ctx context.Context, homepageURL string) (string, error)
}

type ItemExtractor interface {
	Extract(ctx context.Context, page *models.FetchResult) ([]models.MenuItem, string)
}

type ItemClassifier interface {
	Classify(ctx context.Context, items []models.MenuItem, restaurantName string) ([]models.ClassificationBatchResult, models.AnalysisMethod, error)
}

// WebsiteResolver turns a place id into place details when the caller has no
// website URL for a restaurant. PlaceService implements it.
type WebsiteResolver interface {
	Details(ctx context.Context, placeID string) (*models.PlaceDetails, error)
}

// AnalysisService runs the whole pipeline per restaurant and aggregates batch
// results into one RestaurantAnalysis. Stage failures become typed outcomes
// on the analysis, never errors crossing the stage boundary.
type AnalysisService struct {
	locator           MenuLocator
	fetcher           Fetcher
	extractor         ItemExtractor
	classifier        ItemClassifier
	places            WebsiteResolver
	diag              *utils.Diagnostics
	restaurantTimeout time.Duration
}

// NewAnalysisService wires the pipeline stages together. places may be nil,
// in which case callers must supply website URLs themselves.
func NewAnalysisService(locator MenuLocator, fetcher Fetcher, extractor ItemExtractor, classifier ItemClassifier, places WebsiteResolver, diag *utils.Diagnostics) *AnalysisService {
	return &AnalysisService{
		locator:           locator,
		fetcher:           fetcher,
		extractor:         extractor,
		classifier:        classifier,
		places:            places,
		diag:              diag,
		restaurantTimeout: environment.GetRestaurantTimeout(),
	}
}

// ScrapeAndAnalyze runs locate → fetch → extract → classify → aggregate for
// one restaurant, bounded by the whole-restaurant timeout. It always returns
// an analysis; failures carry a human-readable reason, an empty item list and
// the unknown tier. When no website URL is given, the restaurant id (a Places
// id) is resolved to one through the details lookup first.
func (s *AnalysisService) ScrapeAndAnalyze(ctx context.Context, websiteURL, restaurantID, restaurantName string) *models.RestaurantAnalysis {
	ctx, cancel := context.WithTimeout(ctx, s.restaurantTimeout)
	defer cancel()

	if websiteURL == "" && restaurantID != "" && s.places != nil {
		if details, err := s.places.Details(ctx, restaurantID); err == nil && details != nil {
			websiteURL = details.Website
		}
	}

	if websiteURL == "" {
		return failureAnalysis(restaurantID, restaurantName, models.MethodNoWebsite,
			"This restaurant has no website listed, so its menu could not be analyzed.")
	}

	menuURL, err := s.locator.Locate(ctx, websiteURL)
	if err != nil {
		return s.locateFailure(restaurantID, restaurantName, err)
	}
	s.diag.Record("pipeline", "%s: menu located at %s", restaurantName, menuURL)

	page := s.fetcher.Fetch(ctx, menuURL)
	if !page.Usable() && page.Kind != models.ContentPDF {
		return failureAnalysis(restaurantID, restaurantName, models.MethodScrapingFailed,
			"The menu page was found but could not be fetched.")
	}

	items, extractionMethod := s.extractor.Extract(ctx, page)
	if extractionMethod == ExtractionFailed || len(items) == 0 {
		reason := "Menu items could not be extracted from the menu page."
		if page.Kind == models.ContentPDF {
			reason = "The menu is only available as a PDF that could not be parsed."
		}
		return failureAnalysis(restaurantID, restaurantName, models.MethodFailed, reason)
	}
	s.diag.Record("pipeline", "%s: extracted %d items (%s)", restaurantName, len(items), extractionMethod)

	batches, method, err := s.classifier.Classify(ctx, items, restaurantName)
	if err != nil {
		return failureAnalysis(restaurantID, restaurantName, models.MethodFailed,
			"Menu items were found but vegetarian classification failed.")
	}

	analysis := Aggregate(batches, restaurantID, restaurantName)
	analysis.Method = method
	return analysis
}

func (s *AnalysisService) locateFailure(restaurantID, restaurantName string, err error) *models.RestaurantAnalysis {
	switch {
	case errors.Is(err, utils.ErrBotProtectionDetected):
		return failureAnalysis(restaurantID, restaurantName, models.MethodScrapingFailed,
			"The restaurant's website could not be reached: it is protected against automated access.")
	case errors.Is(err, utils.ErrNetworkUnreachable):
		return failureAnalysis(restaurantID, restaurantName, models.MethodScrapingFailed,
			"The restaurant's website could not be reached.")
	case errors.Is(err, utils.ErrBinaryContentDetected):
		return failureAnalysis(restaurantID, restaurantName, models.MethodFailed,
			"The restaurant only publishes its menu as a PDF that could not be read.")
	default:
		return failureAnalysis(restaurantID, restaurantName, models.MethodFailed,
			"The restaurant's website is reachable but no menu page could be found on it.")
	}
}

// AnalyzeSelection runs the pipeline concurrently over a selection of at most
// MaxSelectionSize restaurants. One restaurant's failure never cancels its
// siblings; results are matched back by restaurant id, not completion order.
func (s *AnalysisService) AnalyzeSelection(ctx context.Context, restaurants []models.Restaurant, minCriteria models.Tier, onProgress func(models.AnalysisProgress)) (*models.BatchReport, error) {
	if len(restaurants) == 0 {
		return nil, utils.ErrSelectionEmpty
	}
	if len(restaurants) > MaxSelectionSize {
		return nil, fmt.Errorf("%w: %d selected, max %d", utils.ErrSelectionTooLarge, len(restaurants), MaxSelectionSize)
	}

	total := len(restaurants)
	results := make([]*models.RestaurantAnalysis, total)

	var mu sync.Mutex
	completed := 0
	emit := func(r models.Restaurant, stage string) {
		if onProgress == nil {
			return
		}
		mu.Lock()
		if stage != "started" {
			completed++
		}
		event := models.AnalysisProgress{
			RestaurantID:   r.ID,
			RestaurantName: r.Name,
			Stage:          stage,
			Completed:      completed,
			Total:          total,
		}
		mu.Unlock()
		onProgress(event)
	}

	var wg sync.WaitGroup
	for i, restaurant := range restaurants {
		wg.Add(1)
		go func(i int, restaurant models.Restaurant) {
			defer wg.Done()
			defer func() {
				// One panicking pipeline must not take the batch down.
				if r := recover(); r != nil {
					log.Printf("❌ analysis panic for %s: %v", restaurant.Name, r)
					results[i] = failureAnalysis(restaurant.ID, restaurant.Name, models.MethodFailed,
						"The analysis failed unexpectedly.")
					emit(restaurant, "failed")
				}
			}()

			emit(restaurant, "started")

			// ScrapeAndAnalyze applies the whole-restaurant timeout itself.
			analysis := s.ScrapeAndAnalyze(ctx, restaurant.Website, restaurant.ID, restaurant.Name)
			results[i] = analysis

			if analysis.Tier == models.TierUnknown {
				emit(restaurant, "failed")
			} else {
				emit(restaurant, "completed")
			}
		}(i, restaurant)
	}
	wg.Wait()

	report := &models.BatchReport{MinCriteria: minCriteria}
	for _, analysis := range results {
		analysis.MeetsCriteria = MeetsCriteria(analysis.Tier, minCriteria)
		report.Results = append(report.Results, *analysis)
		if analysis.MeetsCriteria {
			report.Qualifying = append(report.Qualifying, analysis.RestaurantID)
		}
	}
	return report, nil
}

// MeetsCriteria compares a computed tier against the requested minimum on the
// tier total order. Unknown never qualifies.
func MeetsCriteria(tier, minCriteria models.Tier) bool {
	if tier == models.TierUnknown {
		return false
	}
	return tier.Rank() >= minCriteria.Rank()
}

// Aggregate merges all batch results into one restaurant-level analysis:
// items concatenated, recommendations unioned, confidences averaged over the
// batches that produced one, and the tier computed from item counts and the
// vegetarian ratio, and then optimistically upgraded when any single batch
// reported stronger.
func Aggregate(batches []models.ClassificationBatchResult, restaurantID, restaurantName string) *models.RestaurantAnalysis {
	var items []models.ClassifiedItem
	var recommendations []string
	seenRec := make(map[string]bool)
	totalItems := 0
	confidenceSum := 0.0
	confidenceCount := 0

	for _, batch := range batches {
		items = append(items, batch.Items...)
		totalItems += batch.TotalItems
		if batch.Confidence > 0 {
			confidenceSum += batch.Confidence
			confidenceCount++
		}
		for _, rec := range batch.Recommendations {
			if !seenRec[rec] {
				seenRec[rec] = true
				recommendations = append(recommendations, rec)
			}
		}
	}

	confidence := 0.0
	if confidenceCount > 0 {
		confidence = confidenceSum / float64(confidenceCount)
	}

	tier := ComputeTier(len(items), totalItems)
	for _, batch := range batches {
		if batch.Tier != models.TierUnknown && batch.Tier.Rank() > tier.Rank() {
			tier = batch.Tier
		}
	}

	return &models.RestaurantAnalysis{
		RestaurantID:    restaurantID,
		RestaurantName:  restaurantName,
		Items:           items,
		Tier:            tier,
		Confidence:      confidence,
		Recommendations: recommendations,
		TotalItems:      totalItems,
		VegetarianCount: len(items),
		Method:          models.MethodAIAnalysis,
		AnalyzedAt:      time.Now(),
	}
}

// ComputeTier maps the vegetarian count and ratio onto a tier. Monotonic in
// both inputs: more vegetarian items, or a higher ratio, never lowers it.
func ComputeTier(vegetarianCount, totalItems int) models.Tier {
	if totalItems == 0 {
		return models.TierUnknown
	}
	ratio := float64(vegetarianCount) / float64(totalItems)

	switch {
	case vegetarianCount >= 8:
		return models.TierExcellent
	case vegetarianCount >= 5 || ratio >= 0.4:
		return models.TierGood
	case vegetarianCount >= 2 || ratio >= 0.2:
		return models.TierFair
	default:
		return models.TierPoor
	}
}

func failureAnalysis(restaurantID, restaurantName string, method models.AnalysisMethod, reason string) *models.RestaurantAnalysis {
	return &models.RestaurantAnalysis{
		RestaurantID:   restaurantID,
		RestaurantName: restaurantName,
		Items:          []models.ClassifiedItem{},
		Tier:           models.TierUnknown,
		Method:         method,
		Reason:         reason,
		AnalyzedAt:     time.Now(),
	}
}
