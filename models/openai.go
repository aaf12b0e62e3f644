package models

// Shapes the AI provider is asked to emit. Responses arrive as free text that
// may wrap one JSON object or array in prose or markdown fencing; utils
// extracts the JSON span before these are unmarshalled.

// MenuCandidate is one link the AI proposes as a possible menu page.
type MenuCandidate struct {
	URL        string  `json:"url"`
	Confidence float64 `json:"confidence"`
	Type       string  `json:"type"` // direct, pdf, orderingsystem
	Reason     string  `json:"reason,omitempty"`
}

// MenuSearchResponse is the AI's answer to "where is the menu on this page".
type MenuSearchResponse struct {
	Candidates []MenuCandidate `json:"candidates"`
	HiddenMenu bool            `json:"hidden_menu"`
}

// MenuCheck is the AI's answer to "is this page content an actual menu".
type MenuCheck struct {
	IsMenu     bool    `json:"is_menu"`
	Confidence float64 `json:"confidence"`
}

// VegRestaurantCheck is the restaurant-level pre-check result.
type VegRestaurantCheck struct {
	IsVegetarianRestaurant bool    `json:"is_vegetarian_restaurant"`
	Confidence             float64 `json:"confidence"`
}

// AIClassifiedItem is one item in a batch classification response.
type AIClassifiedItem struct {
	Name             string  `json:"name"`
	IsVegetarian     bool    `json:"is_vegetarian"`
	IsVegan          bool    `json:"is_vegan"`
	Confidence       float64 `json:"confidence"`
	ExplicitlyMarked bool    `json:"explicitly_marked"`
	Notes            string  `json:"notes,omitempty"`
}

// AIBatchResponse is the AI's answer for one classification batch.
type AIBatchResponse struct {
	Items           []AIClassifiedItem `json:"items"`
	Confidence      float64            `json:"confidence"`
	Rating          string             `json:"rating,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
}
