package models

import "time"

// Tier is the restaurant-level vegetarian friendliness rating.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
	TierVeryPoor  Tier = "very poor"
	TierUnknown   Tier = "unknown"
)

// Rank places tiers on their total order. unknown sits at the bottom so a
// failed analysis never outranks a real one.
func (t Tier) Rank() int {
	switch t {
	case TierExcellent:
		return 5
	case TierGood:
		return 4
	case TierFair:
		return 3
	case TierPoor:
		return 2
	case TierVeryPoor:
		return 1
	default:
		return 0
	}
}

// ParseTier maps free-form AI output onto a Tier, defaulting to unknown.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierExcellent, TierGood, TierFair, TierPoor, TierVeryPoor:
		return Tier(s)
	default:
		return TierUnknown
	}
}

// AnalysisMethod records which path produced a RestaurantAnalysis.
type AnalysisMethod string

const (
	MethodAIAnalysis     AnalysisMethod = "ai-analysis"
	MethodKeyword        AnalysisMethod = "keyword"
	MethodNoWebsite      AnalysisMethod = "no-website"
	MethodScrapingFailed AnalysisMethod = "scraping-failed"
	MethodFailed         AnalysisMethod = "failed"
)

// RestaurantAnalysis is the externally visible artifact of the pipeline.
// Immutable once produced; the saved-reports store keeps the latest one per
// restaurant id.
type RestaurantAnalysis struct {
	RestaurantID    string           `json:"restaurant_id"`
	RestaurantName  string           `json:"restaurant_name"`
	Items           []ClassifiedItem `json:"items"`
	Tier            Tier             `json:"tier"`
	Confidence      float64          `json:"confidence"`
	Recommendations []string         `json:"recommendations,omitempty"`
	TotalItems      int              `json:"total_items"`
	VegetarianCount int              `json:"vegetarian_count"`
	Method          AnalysisMethod   `json:"method"`
	Reason          string           `json:"reason,omitempty"`
	MeetsCriteria   bool             `json:"meets_criteria"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
}

// AnalysisProgress is one progress event emitted by the orchestrator while a
// multi-restaurant run is in flight.
type AnalysisProgress struct {
	RestaurantID   string `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Stage          string `json:"stage"` // started, completed, failed
	Completed      int    `json:"completed"`
	Total          int    `json:"total"`
}

// BatchReport is the result of analyzing a selection of restaurants.
type BatchReport struct {
	Results     []RestaurantAnalysis `json:"results"`
	Qualifying  []string             `json:"qualifying"`
	MinCriteria Tier                 `json:"min_criteria"`
}
