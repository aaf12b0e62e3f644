package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"VeggieMate/models"
	"VeggieMate/utils"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
)

// Extraction method tags reported alongside the item list.
const (
	ExtractionTraditional = "traditional"
	ExtractionAI          = "ai-extraction"
	ExtractionFailed      = "extraction-failed"
)

var sectionHeaders = []string{
	"appetizers", "appetizer", "starters", "starter", "mains", "main courses",
	"main course", "entrees", "entrées", "pasta", "pizza", "pizzas", "salads",
	"salad", "soups", "soup", "sides", "side dishes", "desserts", "dessert",
	"drinks", "beverages", "specials", "breakfast", "lunch", "dinner",
	"sandwiches", "burgers", "wraps", "bowls", "small plates",
}

var foodKeywords = []string{
	"grilled", "fried", "roasted", "baked", "sauteed", "sautéed", "steamed",
	"braised", "marinated", "stuffed", "glazed", "topped", "served with",
	"tossed", "salad", "soup", "pasta", "pizza", "burger", "sandwich", "wrap",
	"curry", "tofu", "cheese", "risotto", "noodles", "rice", "taco", "bowl",
}

var (
	// <candidate name> <separator> <price>
	itemPriceRe = regexp.MustCompile(`^(.{2,70}?)[\s.·\-–—:]*((?:[$€£¥₹]|kr|CHF)\s?\d+(?:[.,]\d{1,2})?|\d+[.,]\d{2})\s*$`)
	currencyRe  = regexp.MustCompile(`[$€£¥₹]|kr\b|CHF`)
)

// ExtractService converts located-page content into a deduplicated list of
// menu items. Traditional strategies run first; the AI fallback only fires
// when their union fails the quality gate.
type ExtractService struct {
	ai   Completer
	diag *utils.Diagnostics
}

// NewExtractService initializes ExtractService.
func NewExtractService(ai Completer, diag *utils.Diagnostics) *ExtractService {
	return &ExtractService{ai: ai, diag: diag}
}

// Extract returns the menu items found in the fetched page, the extraction
// method used, and never fails hard: an insufficient result comes back with
// the extraction-failed tag and whatever partial items there are.
func (s *ExtractService) Extract(ctx context.Context, page *models.FetchResult) ([]models.MenuItem, string) {
	text := s.pageToText(page)
	if strings.TrimSpace(text) == "" {
		return nil, ExtractionFailed
	}

	defaultCurrency := inferCurrency(text)

	sectionItems := extractSections(text, defaultCurrency)
	pricedItems := extractPriced(text, defaultCurrency)

	var keywordItems []models.MenuItem
	if len(pricedItems) > 0 {
		// Keyword matches alone are too noisy; they only corroborate a page
		// that already produced priced items.
		keywordItems = extractKeywordLines(text)
	}

	items := MergeDedup(sectionItems, pricedItems, keywordItems)
	if extractionSufficient(items) {
		s.diag.Record("extract", "traditional strategies yielded %d items", len(items))
		return items, ExtractionTraditional
	}

	aiItems, err := s.aiExtract(ctx, text)
	if err != nil {
		s.diag.Record("extract", "AI extraction fallback failed: %v", err)
		return items, ExtractionFailed
	}

	merged := MergeDedup(items, aiItems)
	if extractionSufficient(merged) {
		return merged, ExtractionAI
	}
	return merged, ExtractionFailed
}

// pageToText flattens whatever the fetcher produced into plain text: PDFs go
// through pdf text extraction, HTML through readability with a goquery
// fallback.
func (s *ExtractService) pageToText(page *models.FetchResult) string {
	if page == nil || page.Content == "" {
		return ""
	}

	if page.Kind == models.ContentPDF {
		text, err := ExtractPDFText([]byte(page.Content))
		if err != nil {
			s.diag.Record("extract", "pdf text extraction failed for %s: %v", page.URL, err)
			return ""
		}
		return text
	}

	if parsed, err := url.Parse(page.URL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(page.Content), parsed); err == nil && article.TextContent != "" {
			return article.TextContent
		}
	}
	return htmlToLines(page.Content)
}

var blockTagRe = regexp.MustCompile(`(?i)</(?:p|div|li|tr|h[1-6]|section|article)>|<br\s*/?>`)

// htmlToLines flattens HTML to text while keeping block boundaries as line
// breaks, since the line structure is what the text strategies parse.
func htmlToLines(html string) string {
	withBreaks := blockTagRe.ReplaceAllStringFunc(html, func(tag string) string { return tag + "\n" })
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(withBreaks))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Text()
}

// ExtractPDFText pulls the plain text out of a PDF document.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// extractSections splits the text at recognized category headers and pulls
// priced line-items out of each section, falling back to bare dish-looking
// lines when a section has no priced items at all.
func extractSections(text, defaultCurrency string) []models.MenuItem {
	lines := splitLines(text)

	var items []models.MenuItem
	current := ""
	var sectionBare []models.MenuItem
	sectionPriced := 0

	flush := func() {
		if sectionPriced == 0 && len(sectionBare) > 0 {
			items = append(items, sectionBare...)
		}
		sectionBare = nil
		sectionPriced = 0
	}

	for _, line := range lines {
		if header, ok := matchSectionHeader(line); ok {
			flush()
			current = header
			continue
		}
		if current == "" {
			continue
		}

		if item, ok := parsePricedLine(line, defaultCurrency); ok {
			item.Category = current
			items = append(items, item)
			sectionPriced++
			continue
		}
		if looksLikeDishName(line) {
			sectionBare = append(sectionBare, models.MenuItem{Name: strings.TrimSpace(line), Category: current})
		}
	}
	flush()

	return items
}

// extractPriced scans every line of the page for name-price patterns.
func extractPriced(text, defaultCurrency string) []models.MenuItem {
	var items []models.MenuItem
	for _, line := range splitLines(text) {
		if item, ok := parsePricedLine(line, defaultCurrency); ok {
			items = append(items, item)
		}
	}
	return items
}

func extractKeywordLines(text string) []models.MenuItem {
	var items []models.MenuItem
	for _, line := range splitLines(text) {
		// Priced lines are already captured; re-adding them here would
		// duplicate the item under a name that still carries the price text.
		if _, ok := parsePricedLine(line, ""); ok {
			continue
		}
		if !looksLikeDishName(line) {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range foodKeywords {
			if strings.Contains(lower, kw) {
				items = append(items, models.MenuItem{Name: strings.TrimSpace(line)})
				break
			}
		}
	}
	return items
}

func (s *ExtractService) aiExtract(ctx context.Context, text string) ([]models.MenuItem, error) {
	if s.ai == nil {
		return nil, fmt.Errorf("no AI provider configured")
	}

	sample := text
	if len(sample) > 8000 {
		sample = sample[:8000]
	}
	prompt := fmt.Sprintf(`Extract every food menu item from this restaurant page text.

%s

Return ONLY a JSON array:
[{"name":"...","price":"...","category":"...","description":"..."}]
Leave price, category and description empty when unknown. Do not invent items.`, sample)

	raw, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var items []models.MenuItem
	if err := utils.DecodeLooseJSON(raw, &items); err != nil {
		return nil, err
	}

	valid := items[:0]
	for _, item := range items {
		if looksLikeDishName(item.Name) {
			valid = append(valid, item)
		}
	}
	return valid, nil
}

// MergeDedup unions item lists, dropping duplicates by normalized name. The
// first occurrence wins, so strategy order decides which variant survives.
// Running it twice over the same input yields the same set as running it
// once.
func MergeDedup(lists ...[]models.MenuItem) []models.MenuItem {
	seen := make(map[string]bool)
	var out []models.MenuItem
	for _, list := range lists {
		for _, item := range list {
			key := normalizeItemName(item.Name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
		}
	}
	return out
}

// extractionSufficient is the quality gate: enough items and either a priced
// item or a big enough haul to trust an unpriced page.
func extractionSufficient(items []models.MenuItem) bool {
	if len(items) < 5 {
		return false
	}
	for _, item := range items {
		if item.Price != "" {
			return true
		}
	}
	return len(items) >= 15
}

func parsePricedLine(line, defaultCurrency string) (models.MenuItem, bool) {
	m := itemPriceRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return models.MenuItem{}, false
	}

	name := strings.Trim(strings.TrimSpace(m[1]), ".-–—:·")
	if !looksLikeDishName(name) {
		return models.MenuItem{}, false
	}

	price := strings.TrimSpace(m[2])
	currency := defaultCurrency
	if sym := currencyRe.FindString(price); sym != "" {
		currency = currencySymbolName(sym)
	}

	// Dish descriptions often ride on the name line separated by a dash.
	description := ""
	if idx := strings.Index(name, " - "); idx > 0 {
		description = strings.TrimSpace(name[idx+3:])
		name = strings.TrimSpace(name[:idx])
	}

	return models.MenuItem{Name: name, Price: price, Currency: currency, Description: description}, true
}

func matchSectionHeader(line string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(strings.Trim(line, ":*#")))
	if trimmed == "" || len(trimmed) > 40 {
		return "", false
	}
	for _, header := range sectionHeaders {
		if trimmed == header {
			return header, true
		}
	}
	return "", false
}

func looksLikeDishName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 3 || len(s) > 90 {
		return false
	}
	if len(strings.Fields(s)) > 12 {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasLetter = true
			break
		}
	}
	return hasLetter
}

// inferCurrency picks a default currency from page cues for bare numeric
// prices.
func inferCurrency(text string) string {
	counts := map[string]int{}
	for _, sym := range []string{"$", "€", "£", "¥", "₹"} {
		counts[sym] = strings.Count(text, sym)
	}
	best, bestCount := "USD", 0
	for sym, count := range counts {
		if count > bestCount {
			best, bestCount = currencySymbolName(sym), count
		}
	}
	return best
}

func currencySymbolName(sym string) string {
	switch strings.TrimSpace(sym) {
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	case "¥":
		return "JPY"
	case "₹":
		return "INR"
	case "kr":
		return "SEK"
	case "CHF":
		return "CHF"
	default:
		return "USD"
	}
}

func normalizeItemName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.Trim(name, ".,:;!?*-–—·")
	return strings.Join(strings.Fields(name), " ")
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
