package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"VeggieMate/models"
	"VeggieMate/utils"

	"github.com/PuerkitoBio/goquery"
)

const (
	locatorMaxDepth          = 3
	locatorMaxCandidates     = 5
	menuCheckThreshold       = 0.6
	hiddenMenuCheckThreshold = 0.5
	pdfFallbackThreshold     = 0.8
	recurseThreshold         = 0.7
)

var commonMenuPaths = []string{
	"/menu", "/menus", "/food", "/eat", "/dining", "/dinner", "/lunch",
	"/carte", "/kitchen", "/food-menu", "/our-menu",
}

var menuLinkKeywords = []string{"menu", "food", "eat", "dine", "carte", "kitchen"}

var priceRe = regexp.MustCompile(`[$€£¥₹]\s*\d+|\d+[.,]\d{2}`)

// Fetcher is the content fetcher seen from the locator's side.
type Fetcher interface {
	Fetch(ctx context.Context, url string) *models.FetchResult
}

// LocatorService finds the single URL on a restaurant's site that holds the
// actual menu. It cascades: AI candidate search with bounded recursion, then
// the homepage itself, then common path probing, then keyword links.
type LocatorService struct {
	fetcher Fetcher
	ai      Completer
	diag    *utils.Diagnostics
}

// NewLocatorService initializes LocatorService.
func NewLocatorService(fetcher Fetcher, ai Completer, diag *utils.Diagnostics) *LocatorService {
	return &LocatorService{fetcher: fetcher, ai: ai, diag: diag}
}

type locateState struct {
	visited       map[string]bool
	aiFailed      bool
	homepage      *models.FetchResult
	pdfFallback   string
	pdfConfidence float64
}

// Locate returns the best menu URL for the homepage, or a typed error
// explaining why none was found: site unreachable, bot protection, or
// reachable-but-no-menu. A PDF-only menu is returned as the PDF URL so the
// extractor can still pull text out of it.
func (s *LocatorService) Locate(ctx context.Context, homepageURL string) (string, error) {
	state := &locateState{visited: make(map[string]bool)}
	state.homepage = s.fetcher.Fetch(ctx, homepageURL)

	if state.homepage.Kind == models.ContentPDF {
		// The site is a single PDF; treat it as the menu.
		return state.homepage.URL, nil
	}

	strategies := []Strategy[string]{
		{Name: "ai-search", Run: func(ctx context.Context) StrategyResult[string] {
			return s.aiSearch(ctx, state)
		}},
		{Name: "homepage-self-check", Run: func(ctx context.Context) StrategyResult[string] {
			return s.homepageCheck(ctx, state)
		}},
		{Name: "common-paths", Run: func(ctx context.Context) StrategyResult[string] {
			return s.probeCommonPaths(ctx, homepageURL, state)
		}},
		{Name: "keyword-links", Run: func(ctx context.Context) StrategyResult[string] {
			return s.keywordLinks(ctx, state)
		}},
	}

	if found, ok := FirstAccepted(ctx, s.diag, strategies); ok {
		return found, nil
	}

	if state.pdfFallback != "" {
		s.diag.Record("locator", "no HTML menu found, falling back to PDF %s", state.pdfFallback)
		return state.pdfFallback, nil
	}

	switch state.homepage.Kind {
	case models.ContentBotBlocked:
		return "", fmt.Errorf("locate %s: %w", homepageURL, utils.ErrBotProtectionDetected)
	case models.ContentHTML:
		return "", fmt.Errorf("locate %s: %w", homepageURL, utils.ErrMenuNotFound)
	default:
		return "", fmt.Errorf("locate %s: %w", homepageURL, utils.ErrNetworkUnreachable)
	}
}

// aiSearch asks the AI to rank menu candidates on each page and follows
// strong candidates depth-first. The visited set guarantees no URL is
// analyzed twice, so the walk terminates even on cyclic site graphs.
func (s *LocatorService) aiSearch(ctx context.Context, state *locateState) StrategyResult[string] {
	if !state.homepage.Usable() {
		return Failed[string]("homepage not fetchable: " + string(state.homepage.Kind))
	}
	if s.ai == nil {
		return Failed[string]("no AI provider configured")
	}

	found, err := s.searchPage(ctx, state, state.homepage, 0)
	if err != nil {
		state.aiFailed = true
		return Failed[string](err.Error())
	}
	if found != "" {
		return Accepted(found)
	}
	return Insufficient[string]("no candidate passed the menu check")
}

// searchPage checks one page's candidates in ranked order. A strong candidate
// that is not itself the menu may still link to it, so the search descends
// into it before trying the page's next candidate.
func (s *LocatorService) searchPage(ctx context.Context, state *locateState, page *models.FetchResult, depth int) (string, error) {
	key := normalizeURL(page.URL)
	if state.visited[key] || depth >= locatorMaxDepth {
		return "", nil
	}
	state.visited[key] = true

	search, err := s.askForCandidates(ctx, page)
	if err != nil {
		return "", fmt.Errorf("candidate search: %w", err)
	}

	candidates := search.Candidates
	if len(candidates) > locatorMaxCandidates {
		candidates = candidates[:locatorMaxCandidates]
	}

	for _, candidate := range candidates {
		candidateURL := resolveURL(page.URL, candidate.URL)
		if candidateURL == "" || state.visited[normalizeURL(candidateURL)] {
			continue
		}

		if candidate.Type == "pdf" || strings.HasSuffix(strings.ToLower(candidateURL), ".pdf") {
			if candidate.Confidence > pdfFallbackThreshold && candidate.Confidence > state.pdfConfidence {
				state.pdfFallback = candidateURL
				state.pdfConfidence = candidate.Confidence
				s.diag.Record("locator", "PDF fallback candidate %s (%.2f), continuing HTML search", candidateURL, candidate.Confidence)
			}
			continue
		}

		fetched := s.fetcher.Fetch(ctx, candidateURL)
		if fetched.Kind == models.ContentPDF {
			if candidate.Confidence > state.pdfConfidence {
				state.pdfFallback = fetched.URL
				state.pdfConfidence = candidate.Confidence
			}
			continue
		}
		if !fetched.Usable() {
			state.visited[normalizeURL(candidateURL)] = true
			continue
		}

		check, err := s.menuCheck(ctx, fetched.Content)
		if err != nil {
			return "", fmt.Errorf("menu check: %w", err)
		}
		if check.IsMenu && check.Confidence >= menuCheckThreshold {
			return fetched.URL, nil
		}

		if candidate.Confidence >= recurseThreshold {
			found, err := s.searchPage(ctx, state, fetched, depth+1)
			if err != nil || found != "" {
				return found, err
			}
		} else {
			state.visited[normalizeURL(fetched.URL)] = true
		}
	}

	if depth == 0 && search.HiddenMenu {
		check, err := s.menuCheck(ctx, page.Content)
		if err == nil && check.IsMenu && check.Confidence >= hiddenMenuCheckThreshold {
			return page.URL, nil
		}
	}
	return "", nil
}

func (s *LocatorService) homepageCheck(ctx context.Context, state *locateState) StrategyResult[string] {
	if !state.homepage.Usable() {
		return Failed[string]("homepage not fetchable")
	}
	if s.ai != nil && !state.aiFailed {
		check, err := s.menuCheck(ctx, state.homepage.Content)
		if err != nil {
			state.aiFailed = true
		} else if check.IsMenu && check.Confidence >= menuCheckThreshold {
			return Accepted(state.homepage.URL)
		}
		return Insufficient[string]("homepage is not a menu page")
	}
	if HasPriceIndicators(state.homepage.Content) {
		return Accepted(state.homepage.URL)
	}
	return Insufficient[string]("homepage shows no price indicators")
}

func (s *LocatorService) probeCommonPaths(ctx context.Context, homepageURL string, state *locateState) StrategyResult[string] {
	base, err := url.Parse(homepageURL)
	if err != nil || base.Host == "" {
		return Failed[string]("unparsable homepage URL")
	}
	if base.Scheme == "" {
		base.Scheme = "https"
	}

	for _, path := range commonMenuPaths {
		probe := base.Scheme + "://" + base.Host + path
		if state.visited[normalizeURL(probe)] {
			continue
		}
		state.visited[normalizeURL(probe)] = true

		fetched := s.fetcher.Fetch(ctx, probe)
		if fetched.Kind == models.ContentPDF && state.pdfFallback == "" {
			state.pdfFallback = fetched.URL
			continue
		}
		if !fetched.Usable() {
			continue
		}

		if s.ai != nil && !state.aiFailed {
			check, err := s.menuCheck(ctx, fetched.Content)
			if err != nil {
				state.aiFailed = true
			} else {
				if check.IsMenu && check.Confidence >= menuCheckThreshold {
					return Accepted(fetched.URL)
				}
				continue
			}
		}
		if HasPriceIndicators(fetched.Content) {
			return Accepted(fetched.URL)
		}
	}
	return Insufficient[string]("no common path held a menu")
}

// keywordLinks is the final non-AI fallback: links whose anchor text or href
// mentions a menu keyword, up to five tested with the price heuristic.
func (s *LocatorService) keywordLinks(ctx context.Context, state *locateState) StrategyResult[string] {
	if !state.homepage.Usable() {
		return Failed[string]("homepage not fetchable")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(state.homepage.Content))
	if err != nil {
		return Failed[string]("parse homepage: " + err.Error())
	}

	var candidates []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := sel.AttrOr("href", "")
		haystack := strings.ToLower(sel.Text() + " " + href)
		for _, kw := range menuLinkKeywords {
			if strings.Contains(haystack, kw) {
				if resolved := resolveURL(state.homepage.URL, href); resolved != "" && !state.visited[normalizeURL(resolved)] {
					candidates = append(candidates, resolved)
				}
				break
			}
		}
		return len(candidates) < locatorMaxCandidates
	})

	for _, candidate := range candidates {
		state.visited[normalizeURL(candidate)] = true
		fetched := s.fetcher.Fetch(ctx, candidate)
		if fetched.Usable() && HasPriceIndicators(fetched.Content) {
			return Accepted(fetched.URL)
		}
	}
	return Insufficient[string]("no keyword link held a menu")
}

func (s *LocatorService) askForCandidates(ctx context.Context, page *models.FetchResult) (*models.MenuSearchResponse, error) {
	reduced := ReduceHTML(page.Content, page.URL)
	prompt := fmt.Sprintf(`You are locating the food menu on a restaurant website.
Below is a structural extract of %s: its links, buttons and navigation.

%s

Return ONLY a JSON object of this shape, candidates ranked best first (at most %d):
{"candidates":[{"url":"...","confidence":0.0,"type":"direct|pdf|orderingsystem","reason":"..."}],"hidden_menu":false}
Set "hidden_menu" to true if the menu content appears to live on this page itself rather than behind a link.`,
		page.URL, reduced, locatorMaxCandidates)

	text, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var resp models.MenuSearchResponse
	if err := utils.DecodeLooseJSON(text, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *LocatorService) menuCheck(ctx context.Context, content string) (*models.MenuCheck, error) {
	sample := PageText(content)
	if len(sample) > 3000 {
		sample = sample[:3000]
	}
	prompt := fmt.Sprintf(`Does the following page content contain an actual restaurant food menu
(dish names, ideally with prices), as opposed to marketing copy or navigation?

%s

Return ONLY JSON: {"is_menu":true,"confidence":0.0}`, sample)

	text, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var check models.MenuCheck
	if err := utils.DecodeLooseJSON(text, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// HasPriceIndicators reports whether text looks like it carries menu prices:
// currency symbols or decimal price patterns, at least three hits.
func HasPriceIndicators(text string) bool {
	return len(priceRe.FindAllString(text, 4)) >= 3
}

// ReduceHTML condenses a page to the parts that matter for locating a menu:
// link and button text with targets, plus elements flagged as menus.
func ReduceHTML(html, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return truncate(html, 4000)
	}

	var b strings.Builder
	doc.Find("a[href], button, nav, [class*=menu], [id*=menu]").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(strings.Join(strings.Fields(sel.Text()), " "))
		if text == "" {
			return
		}
		if len(text) > 120 {
			text = text[:120]
		}
		if href, ok := sel.Attr("href"); ok {
			fmt.Fprintf(&b, "%s -> %s\n", text, href)
		} else {
			fmt.Fprintf(&b, "%s\n", text)
		}
	})
	return truncate(b.String(), 4000)
}

// PageText flattens HTML to whitespace-normalized text.
func PageText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// normalizeURL is the visited-set key: fragment dropped, www stripped,
// https assumed, trailing slash trimmed.
func normalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	parsed.Host = strings.TrimPrefix(parsed.Host, "www.")
	if parsed.Scheme == "" || parsed.Scheme == "http" {
		parsed.Scheme = "https"
	}
	return strings.TrimRight(parsed.String(), "/")
}

func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
