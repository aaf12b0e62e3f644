package services

import (
	"log"
	"strings"

	openfoodfacts "github.com/openfoodfacts/openfoodfacts-go"
)

// IngredientService resolves packaged products (bottled drinks, snacks sold
// alongside the menu) against OpenFoodFacts so their vegetarian status does
// not depend on AI guesswork.
type IngredientService struct {
	Client openfoodfacts.Client
}

// NewIngredientService initializes a new instance of IngredientService
func NewIngredientService() *IngredientService {
	client := openfoodfacts.NewClient("world", "", "")
	return &IngredientService{Client: client}
}

// ProductDetail is a structured response containing product information and
// its vegetarian/vegan flags.
type ProductDetail struct {
	Name            string   `json:"name"`
	IngredientsText string   `json:"ingredients_text"`
	IngredientsTags []string `json:"ingredients_tags"`
	Vegetarian      bool     `json:"vegetarian"`
	Vegan           bool     `json:"vegan"`
	FlaggedTerms    []string `json:"flagged_terms,omitempty"`
}

// GetProductByBarcode fetches product details using a barcode and checks the
// ingredient list against the disqualifying terms.
func (s *IngredientService) GetProductByBarcode(barcode string) (*ProductDetail, error) {
	product, err := s.Client.Product(barcode)
	if err != nil {
		log.Printf("Error fetching product %s: %v", barcode, err)
		return nil, nil
	}

	if product.ProductName == "" && product.IngredientsText == "" {
		return nil, nil
	}

	detail := &ProductDetail{
		Name:            product.ProductName,
		IngredientsText: product.IngredientsText,
		IngredientsTags: product.IngredientsTags,
	}

	haystack := strings.ToLower(product.IngredientsText + " " + strings.Join(product.IngredientsTags, " "))
	for _, term := range disqualifyingTerms {
		if strings.Contains(haystack, term) {
			detail.FlaggedTerms = append(detail.FlaggedTerms, term)
		}
	}
	detail.Vegetarian = len(detail.FlaggedTerms) == 0
	detail.Vegan = detail.Vegetarian &&
		!strings.Contains(haystack, "milk") &&
		!strings.Contains(haystack, "egg") &&
		!strings.Contains(haystack, "honey") &&
		!strings.Contains(haystack, "cheese") &&
		!strings.Contains(haystack, "butter")

	return detail, nil
}
