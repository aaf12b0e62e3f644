package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"VeggieMate/config/environment"
	"VeggieMate/models"
)

const placesBaseURL = "https://maps.googleapis.com/maps/api/place"

// PlaceService talks to the Google Places API: restaurant discovery plus the
// details lookup that produces the website URL the pipeline starts from.
type PlaceService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPlaceService initializes PlaceService with the API key from the
// environment.
func NewPlaceService() *PlaceService {
	return &PlaceService{
		apiKey:  environment.GetPlacesAPIKey(),
		baseURL: placesBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID  string  `json:"place_id"`
		Name     string  `json:"name"`
		Vicinity string  `json:"vicinity"`
		Address  string  `json:"formatted_address"`
		Rating   float64 `json:"rating"`
		Price    int     `json:"price_level"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		PlaceID      string `json:"place_id"`
		Website      string `json:"website"`
		Phone        string `json:"international_phone_number"`
		OpeningHours struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
	} `json:"result"`
}

// NearbySearch returns restaurants around a point.
func (s *PlaceService) NearbySearch(ctx context.Context, location models.GeoLocation, radiusMeters int) ([]models.Restaurant, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", location.Latitude, location.Longitude))
	params.Set("radius", fmt.Sprintf("%d", radiusMeters))
	params.Set("type", "restaurant")
	return s.search(ctx, "/nearbysearch/json", params)
}

// TextSearch returns restaurants matching a free-form query, optionally
// biased around a point.
func (s *PlaceService) TextSearch(ctx context.Context, query string, location *models.GeoLocation) ([]models.Restaurant, error) {
	params := url.Values{}
	params.Set("query", query)
	if location != nil {
		params.Set("location", fmt.Sprintf("%f,%f", location.Latitude, location.Longitude))
	}
	return s.search(ctx, "/textsearch/json", params)
}

// Details returns the website, phone and hours for one place.
func (s *PlaceService) Details(ctx context.Context, placeID string) (*models.PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,website,international_phone_number,opening_hours")

	var resp detailsResponse
	if err := s.call(ctx, "/details/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" {
		return nil, fmt.Errorf("places details status %s", resp.Status)
	}

	return &models.PlaceDetails{
		PlaceID:      resp.Result.PlaceID,
		Website:      resp.Result.Website,
		PhoneNumber:  resp.Result.Phone,
		OpeningHours: resp.Result.OpeningHours.WeekdayText,
	}, nil
}

func (s *PlaceService) search(ctx context.Context, path string, params url.Values) ([]models.Restaurant, error) {
	var resp placesResponse
	if err := s.call(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places search status %s", resp.Status)
	}

	restaurants := make([]models.Restaurant, 0, len(resp.Results))
	for _, result := range resp.Results {
		vicinity := result.Vicinity
		if vicinity == "" {
			vicinity = result.Address
		}
		restaurants = append(restaurants, models.Restaurant{
			ID:       result.PlaceID,
			Name:     result.Name,
			Vicinity: vicinity,
			Location: models.GeoLocation{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
			Rating:     result.Rating,
			PriceLevel: result.Price,
		})
	}
	return restaurants, nil
}

func (s *PlaceService) call(ctx context.Context, path string, params url.Values, v interface{}) error {
	params.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
