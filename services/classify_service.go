package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"VeggieMate/config/environment"
	"VeggieMate/models"
	"VeggieMate/utils"
)

const (
	vegRestaurantConfidence = 0.7
	vegRestaurantSampleSize = 10
	maxBatchAttempts        = 2
)

// disqualifyingTerms removes an item from the vegetarian set no matter what
// the AI said. The list errs toward exclusion on ambiguous names.
var disqualifyingTerms = []string{
	"beef", "steak", "pork", "bacon", "ham", "prosciutto", "salami",
	"pepperoni", "sausage", "chorizo", "lamb", "veal", "venison", "chicken",
	"turkey", "duck", "goose", "fish", "salmon", "tuna", "cod", "halibut",
	"trout", "anchovy", "anchovies", "sardine", "mackerel", "shrimp", "prawn",
	"prawns", "crab", "lobster", "oyster", "oysters", "mussel", "mussels",
	"clam", "clams", "scallop", "scallops", "squid", "calamari", "octopus",
	"eel", "caviar", "meatball", "meatballs", "meatloaf", "brisket", "ribs",
	"pastrami", "carnitas", "foie gras", "chicken broth", "beef broth",
	"bone broth", "fish sauce", "oyster sauce", "lard", "gelatin",
}

var vegetarianIndicators = []string{
	"vegetarian", "veggie", "vegan", "plant-based", "plant based", "tofu",
	"paneer", "falafel", "hummus", "tempeh", "seitan", "halloumi", "caprese",
	"margherita", "lentil", "chickpea", "eggplant", "aubergine",
	"cauliflower", "mushroom", "garden salad",
}

var menuLabelTerms = []string{
	"menu", "menus", "specials", "wine list", "drink list", "beverages",
	"opening hours", "our story",
}

var disqualifierRe = regexp.MustCompile(`(?i)\b(` + strings.Join(disqualifyingTerms, "|") + `)\b`)

// ClassifyService partitions menu items into batches and classifies each via
// the AI provider, with the deterministic keyword classifier as the last
// resort. The post-filter is authoritative: an item carrying a disqualifying
// term never survives, whatever the AI claimed.
type ClassifyService struct {
	ai         Completer
	diag       *utils.Diagnostics
	batchSize  int
	fanOut     int
	groupPause time.Duration
}

// NewClassifyService initializes ClassifyService with env-tuned batching.
func NewClassifyService(ai Completer, diag *utils.Diagnostics) *ClassifyService {
	return &ClassifyService{
		ai:         ai,
		diag:       diag,
		batchSize:  environment.GetClassifyBatchSize(),
		fanOut:     environment.GetClassifyFanOut(),
		groupPause: environment.GetClassifyGroupPause(),
	}
}

// Classify runs the full classification over items and returns per-batch
// results plus the method that produced them.
func (s *ClassifyService) Classify(ctx context.Context, items []models.MenuItem, restaurantName string) ([]models.ClassificationBatchResult, models.AnalysisMethod, error) {
	if len(items) == 0 {
		return nil, models.MethodFailed, fmt.Errorf("no items to classify")
	}

	// A fully vegetarian restaurant needs no per-item AI calls.
	if s.ai != nil {
		if check, err := s.checkVegetarianRestaurant(ctx, restaurantName, items); err == nil &&
			check.IsVegetarianRestaurant && check.Confidence >= vegRestaurantConfidence {
			s.diag.Record("classify", "%s detected as fully vegetarian (%.2f)", restaurantName, check.Confidence)
			return []models.ClassificationBatchResult{s.vegRestaurantBatch(items, restaurantName)}, models.MethodAIAnalysis, nil
		}
	}

	batches := splitBatches(items, s.batchSize)
	results := make([]models.ClassificationBatchResult, len(batches))
	failed := make([]bool, len(batches))

	// Dispatch in groups of fanOut with a pause between groups so the
	// provider's rate limits stay out of the picture.
	for start := 0; start < len(batches); start += s.fanOut {
		if start > 0 {
			select {
			case <-time.After(s.groupPause):
			case <-ctx.Done():
				return nil, models.MethodFailed, ctx.Err()
			}
		}

		end := start + s.fanOut
		if end > len(batches) {
			end = len(batches)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result, err := s.classifyBatch(ctx, batches[i], restaurantName)
				if err != nil {
					s.diag.Record("classify", "batch %d failed: %v", i, err)
					failed[i] = true
					return
				}
				results[i] = result
			}(i)
		}
		wg.Wait()
	}

	var ok []models.ClassificationBatchResult
	for i := range results {
		if !failed[i] {
			ok = append(ok, results[i])
		}
	}
	if len(ok) > 0 {
		return ok, models.MethodAIAnalysis, nil
	}

	s.diag.Record("classify", "all %d batches failed, using keyword classifier", len(batches))
	return []models.ClassificationBatchResult{KeywordClassify(items)}, models.MethodKeyword, nil
}

func (s *ClassifyService) classifyBatch(ctx context.Context, batch []models.MenuItem, restaurantName string) (models.ClassificationBatchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxBatchAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.ClassificationBatchResult{}, err
		}

		var resp models.AIBatchResponse
		text, err := s.ai.Complete(ctx, batchPrompt(batch, restaurantName))
		if err == nil {
			err = utils.DecodeLooseJSON(text, &resp)
		}
		if err != nil {
			lastErr = err
			continue
		}

		byName := make(map[string]models.MenuItem, len(batch))
		for _, item := range batch {
			byName[normalizeItemName(item.Name)] = item
		}

		var classified []models.ClassifiedItem
		for _, aiItem := range resp.Items {
			if !aiItem.IsVegetarian {
				continue
			}
			source, found := byName[normalizeItemName(aiItem.Name)]
			if !found {
				continue
			}
			classified = append(classified, models.ClassifiedItem{
				MenuItem:         source,
				IsVegan:          aiItem.IsVegan,
				Confidence:       clampConfidence(aiItem.Confidence),
				ExplicitlyMarked: aiItem.ExplicitlyMarked,
				Notes:            aiItem.Notes,
			})
		}

		return models.ClassificationBatchResult{
			Items:           PostFilter(classified),
			Confidence:      clampConfidence(resp.Confidence),
			Tier:            models.ParseTier(resp.Rating),
			Recommendations: resp.Recommendations,
			TotalItems:      len(batch),
		}, nil
	}
	return models.ClassificationBatchResult{}, lastErr
}

func (s *ClassifyService) checkVegetarianRestaurant(ctx context.Context, name string, items []models.MenuItem) (*models.VegRestaurantCheck, error) {
	sample := items
	if len(sample) > vegRestaurantSampleSize {
		sample = sample[:vegRestaurantSampleSize]
	}
	names := make([]string, len(sample))
	for i, item := range sample {
		names[i] = item.Name
	}

	prompt := fmt.Sprintf(`Restaurant name: %q
Sample menu items: %s

Is this a fully vegetarian or vegan restaurant (no meat, poultry, fish or
seafood served at all)? Return ONLY JSON:
{"is_vegetarian_restaurant":false,"confidence":0.0}`, name, strings.Join(names, "; "))

	text, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var check models.VegRestaurantCheck
	if err := utils.DecodeLooseJSON(text, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// vegRestaurantBatch accepts every item with a high fixed confidence. The
// post-filter still runs so the no-disqualifier invariant holds on every
// output path.
func (s *ClassifyService) vegRestaurantBatch(items []models.MenuItem, restaurantName string) models.ClassificationBatchResult {
	classified := make([]models.ClassifiedItem, 0, len(items))
	for _, item := range items {
		classified = append(classified, models.ClassifiedItem{
			MenuItem:         item,
			Confidence:       0.9,
			ExplicitlyMarked: false,
			Notes:            "restaurant classified as fully vegetarian",
		})
	}
	return models.ClassificationBatchResult{
		Items:           PostFilter(classified),
		Confidence:      0.9,
		Tier:            models.TierExcellent,
		Recommendations: []string{fmt.Sprintf("%s appears to be a fully vegetarian restaurant", restaurantName)},
		TotalItems:      len(items),
	}
}

func batchPrompt(batch []models.MenuItem, restaurantName string) string {
	payload, _ := json.Marshal(batch)
	return fmt.Sprintf(`Classify these menu items from %q as vegetarian or not.

Strictly NOT vegetarian, whatever the item name suggests: any meat (beef,
pork, lamb, veal, bacon, ham, sausage), poultry (chicken, turkey, duck), fish
or seafood (including anchovies and fish sauce), or animal broth/stock/lard/
gelatin. When an item is ambiguous, exclude it: mark is_vegetarian false.

Items:
%s

Return ONLY JSON:
{"items":[{"name":"...","is_vegetarian":false,"is_vegan":false,"confidence":0.0,"explicitly_marked":false,"notes":""}],
"confidence":0.0,"rating":"excellent|good|fair|poor|very poor","recommendations":["..."]}
Keep item names exactly as given.`, restaurantName, payload)
}

// PostFilter is the deterministic, authoritative filter: it drops any item
// whose name or description carries a disqualifying term, generic menu-section
// labels masquerading as dishes, and implausibly short names.
func PostFilter(items []models.ClassifiedItem) []models.ClassifiedItem {
	out := make([]models.ClassifiedItem, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if len(name) < 3 {
			continue
		}
		if isMenuLabel(name) {
			continue
		}
		if disqualifierRe.MatchString(name) || disqualifierRe.MatchString(item.Description) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// KeywordClassify is the fully deterministic fallback: include an item only
// when a vegetarian indicator is present and no meat indicator is.
func KeywordClassify(items []models.MenuItem) models.ClassificationBatchResult {
	var classified []models.ClassifiedItem
	for _, item := range items {
		haystack := strings.ToLower(item.Name + " " + item.Description)
		if disqualifierRe.MatchString(haystack) {
			continue
		}
		for _, indicator := range vegetarianIndicators {
			if strings.Contains(haystack, indicator) {
				classified = append(classified, models.ClassifiedItem{
					MenuItem:         item,
					IsVegan:          strings.Contains(haystack, "vegan"),
					Confidence:       0.6,
					ExplicitlyMarked: strings.Contains(haystack, "vegetarian") || strings.Contains(haystack, "vegan"),
					Notes:            "keyword classification",
				})
				break
			}
		}
	}
	return models.ClassificationBatchResult{
		Items:      PostFilter(classified),
		Confidence: 0.5,
		Tier:       models.TierUnknown,
		TotalItems: len(items),
	}
}

func isMenuLabel(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, label := range menuLabelTerms {
		if lower == label || strings.HasSuffix(lower, " "+label) {
			return true
		}
	}
	return false
}

func splitBatches(items []models.MenuItem, size int) [][]models.MenuItem {
	if size <= 0 {
		size = 25
	}
	var batches [][]models.MenuItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
