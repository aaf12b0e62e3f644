package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"VeggieMate/config/database"
	"VeggieMate/models"
	"VeggieMate/utils"

	"cloud.google.com/go/firestore"
	"github.com/mmcloughlin/geohash"
	"google.golang.org/api/iterator"
	"google.golang.org/genproto/googleapis/type/latlng"
)

const reportsCollection = "analysis_reports"

// ReportService is the saved-reports store. One document per restaurant id,
// last write wins, so only the latest analysis survives per restaurant.
type ReportService struct {
	FirestoreClient *firestore.Client
}

// NewReportService initializes ReportService with the Firestore client.
func NewReportService() *ReportService {
	return &ReportService{
		FirestoreClient: database.GetFirestoreClient(),
	}
}

// SaveAnalysis persists an analysis keyed by restaurant id. The location, if
// known, is stored as a GeoPoint plus geohash so saved reports can be queried
// by area.
func (s *ReportService) SaveAnalysis(ctx context.Context, analysis *models.RestaurantAnalysis, location *models.GeoLocation) error {
	data := map[string]interface{}{
		"restaurant_id":    analysis.RestaurantID,
		"restaurant_name":  analysis.RestaurantName,
		"items":            analysis.Items,
		"tier":             string(analysis.Tier),
		"confidence":       analysis.Confidence,
		"recommendations":  analysis.Recommendations,
		"total_items":      analysis.TotalItems,
		"vegetarian_count": analysis.VegetarianCount,
		"method":           string(analysis.Method),
		"reason":           analysis.Reason,
		"analyzed_at":      analysis.AnalyzedAt,
	}
	if location != nil {
		data["location"] = &latlng.LatLng{Latitude: location.Latitude, Longitude: location.Longitude}
		data["geohash"] = geohash.Encode(location.Latitude, location.Longitude)
	}

	_, err := s.FirestoreClient.Collection(reportsCollection).Doc(analysis.RestaurantID).Set(ctx, data)
	return err
}

// GetAnalysis loads the latest saved analysis for a restaurant.
func (s *ReportService) GetAnalysis(ctx context.Context, restaurantID string) (*models.RestaurantAnalysis, error) {
	doc, err := s.FirestoreClient.Collection(reportsCollection).Doc(restaurantID).Get(ctx)
	if err != nil {
		return nil, utils.NewCustomError(http.StatusNotFound, "Report not found")
	}
	return docToAnalysis(doc)
}

// ListAnalyses returns every saved analysis.
func (s *ReportService) ListAnalyses(ctx context.Context) ([]models.RestaurantAnalysis, error) {
	iter := s.FirestoreClient.Collection(reportsCollection).Documents(ctx)
	var analyses []models.RestaurantAnalysis

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		analysis, err := docToAnalysis(doc)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *analysis)
	}
	return analyses, nil
}

func docToAnalysis(doc *firestore.DocumentSnapshot) (*models.RestaurantAnalysis, error) {
	data := doc.Data()
	analysis := &models.RestaurantAnalysis{
		RestaurantID:   stringField(data, "restaurant_id"),
		RestaurantName: stringField(data, "restaurant_name"),
		Tier:           models.ParseTier(stringField(data, "tier")),
		Method:         models.AnalysisMethod(stringField(data, "method")),
		Reason:         stringField(data, "reason"),
	}
	if v, ok := data["confidence"].(float64); ok {
		analysis.Confidence = v
	}
	if v, ok := data["total_items"].(int64); ok {
		analysis.TotalItems = int(v)
	}
	if v, ok := data["vegetarian_count"].(int64); ok {
		analysis.VegetarianCount = int(v)
	}
	if v, ok := data["analyzed_at"].(time.Time); ok {
		analysis.AnalyzedAt = v
	}
	if raw, ok := data["recommendations"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				analysis.Recommendations = append(analysis.Recommendations, s)
			}
		}
	}

	// Items were stored as structs; round-trip them through JSON rather than
	// hand-mapping every nested field.
	if raw, ok := data["items"]; ok {
		encoded, err := json.Marshal(raw)
		if err == nil {
			_ = json.Unmarshal(encoded, &analysis.Items)
		}
	}
	if analysis.Items == nil {
		analysis.Items = []models.ClassifiedItem{}
	}
	return analysis, nil
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
