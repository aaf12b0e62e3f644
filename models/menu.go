package models

// MenuItem is one dish extracted from a menu page. Multiple extraction
// strategies may produce the same item; the extractor dedups by normalized
// name before the list leaves it.
type MenuItem struct {
	Name        string `json:"name" firestore:"name"`
	Price       string `json:"price,omitempty" firestore:"price"`
	Currency    string `json:"currency,omitempty" firestore:"currency"`
	Category    string `json:"category,omitempty" firestore:"category"`
	Description string `json:"description,omitempty" firestore:"description"`
}

// ClassifiedItem is a menu item that survived vegetarian classification.
// Non-vegetarian items are filtered out, never flagged, so every
// ClassifiedItem is vegetarian by construction.
type ClassifiedItem struct {
	MenuItem
	IsVegan          bool    `json:"is_vegan" firestore:"is_vegan"`
	Confidence       float64 `json:"confidence" firestore:"confidence"`
	ExplicitlyMarked bool    `json:"explicitly_marked" firestore:"explicitly_marked"`
	Notes            string  `json:"notes,omitempty" firestore:"notes"`
}

// ClassificationBatchResult is the outcome of one AI classification call over
// a batch of items. Ephemeral: it exists only until aggregation.
type ClassificationBatchResult struct {
	Items           []ClassifiedItem `json:"items"`
	Confidence      float64          `json:"confidence"`
	Tier            Tier             `json:"tier"`
	Recommendations []string         `json:"recommendations,omitempty"`
	TotalItems      int              `json:"total_items"`
}
