package models

// Restaurant is a place returned by the places provider. Immutable once
// fetched; it lives for the duration of one search/analysis session.
type Restaurant struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Vicinity   string      `json:"vicinity"`
	Location   GeoLocation `json:"location"`
	Website    string      `json:"website,omitempty"`
	Rating     float64     `json:"rating,omitempty"`
	PriceLevel int         `json:"price_level,omitempty"`
}

type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlaceDetails carries the extra fields only the details endpoint returns.
type PlaceDetails struct {
	PlaceID      string   `json:"place_id"`
	Website      string   `json:"website,omitempty"`
	PhoneNumber  string   `json:"phone_number,omitempty"`
	OpeningHours []string `json:"opening_hours,omitempty"`
}
