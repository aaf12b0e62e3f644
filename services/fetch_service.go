package services

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"VeggieMate/config/environment"
	"VeggieMate/models"
	"VeggieMate/utils"

	"github.com/temoto/robotstxt"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
const googlebotUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

// Renderer is the browser-rendering backend seen from the fetcher's side.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

type fetchTransport struct {
	name string
	run  func(ctx context.Context, pageURL string) (string, int, error)
}

// FetchService resolves a URL through a ranked list of transports: direct
// HTTP with a browser user agent, direct HTTP with a Googlebot user agent
// (walks through soft bot walls), an optional reader proxy, and finally a
// full browser render. The first response that classifies as usable HTML
// wins.
type FetchService struct {
	client      *http.Client
	renderer    Renderer
	readerProxy string
	diag        *utils.Diagnostics

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData
}

// NewFetchService initializes FetchService. renderer may be nil, in which
// case the render transport is skipped.
func NewFetchService(renderer Renderer, diag *utils.Diagnostics) *FetchService {
	return &FetchService{
		client:      &http.Client{Timeout: environment.GetFetchTimeout()},
		renderer:    renderer,
		readerProxy: environment.GetReaderProxyURL(),
		diag:        diag,
		robots:      make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch resolves rawURL and classifies what came back. It never returns nil:
// when every transport fails the result has empty content and the most
// informative rejection kind seen along the way.
func (s *FetchService) Fetch(ctx context.Context, rawURL string) *models.FetchResult {
	candidates := urlCandidates(rawURL)
	if len(candidates) == 0 {
		return &models.FetchResult{URL: rawURL, Kind: models.ContentEmpty}
	}

	s.checkRobots(ctx, candidates[0])

	worstKind := models.ContentEmpty
	for _, transport := range s.transports() {
		for _, pageURL := range candidates {
			if ctx.Err() != nil {
				return &models.FetchResult{URL: rawURL, Kind: worstKind}
			}

			content, status, err := transport.run(ctx, pageURL)
			if err != nil {
				s.diag.Record("fetch", "%s transport failed for %s: %v", transport.name, pageURL, err)
				continue
			}

			kind := ClassifyContent(content, status)
			switch kind {
			case models.ContentHTML:
				if status >= 400 {
					log.Printf("⚠️ accepting %s with status %d", pageURL, status)
				}
				return &models.FetchResult{URL: pageURL, Content: content, Kind: kind, StatusCode: status, Transport: transport.name}
			case models.ContentPDF:
				// PDF is rejected for HTML purposes but the bytes are kept so
				// the extractor can still pull text out of the document.
				return &models.FetchResult{URL: pageURL, Content: content, Kind: kind, StatusCode: status, Transport: transport.name}
			default:
				s.diag.Record("fetch", "%s rejected %s as %s", transport.name, pageURL, kind)
				worstKind = preferKind(worstKind, kind)
			}
		}
	}

	return &models.FetchResult{URL: rawURL, Kind: worstKind}
}

func (s *FetchService) transports() []fetchTransport {
	transports := []fetchTransport{
		{name: "direct", run: func(ctx context.Context, pageURL string) (string, int, error) {
			return s.httpGet(ctx, pageURL, browserUserAgent)
		}},
		{name: "googlebot-ua", run: func(ctx context.Context, pageURL string) (string, int, error) {
			return s.httpGet(ctx, pageURL, googlebotUserAgent)
		}},
	}

	if s.readerProxy != "" {
		transports = append(transports, fetchTransport{name: "reader-proxy", run: func(ctx context.Context, pageURL string) (string, int, error) {
			return s.httpGet(ctx, strings.TrimRight(s.readerProxy, "/")+"/"+pageURL, browserUserAgent)
		}})
	}

	if s.renderer != nil {
		transports = append(transports, fetchTransport{name: "render", run: func(ctx context.Context, pageURL string) (string, int, error) {
			html, err := s.renderer.Render(ctx, pageURL)
			return html, http.StatusOK, err
		}})
	}

	return transports
}

func (s *FetchService) httpGet(ctx context.Context, pageURL, userAgent string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

// checkRobots is advisory: a disallow is logged and counted but the fetch
// still happens, since we act as a user agent for a single page rather than
// a crawler.
func (s *FetchService) checkRobots(ctx context.Context, pageURL string) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return
	}

	s.mu.Lock()
	data, ok := s.robots[parsed.Host]
	s.mu.Unlock()

	if !ok {
		content, status, err := s.httpGet(ctx, parsed.Scheme+"://"+parsed.Host+"/robots.txt", browserUserAgent)
		if err != nil || status != http.StatusOK {
			return
		}
		data, err = robotstxt.FromString(content)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.robots[parsed.Host] = data
		s.mu.Unlock()
	}

	if data != nil && !data.TestAgent(parsed.Path, "VeggieMate") {
		s.diag.Record("fetch", "robots.txt disallows %s (fetching anyway, single-page access)", pageURL)
	}
}

var botMarkers = []string{
	"enable javascript",
	"javascript is required",
	"checking your browser",
	"just a moment",
	"attention required",
	"cloudflare",
	"ddos protection",
	"verify you are a human",
	"captcha",
}

// ClassifyContent applies the acceptance rules to one candidate response.
func ClassifyContent(content string, status int) models.ContentKind {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return models.ContentEmpty
	}
	if status >= 500 {
		return models.ContentErrorPage
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range botMarkers {
		if strings.Contains(lower, marker) {
			return models.ContentBotBlocked
		}
	}

	if strings.HasPrefix(trimmed, "%PDF-") || strings.Contains(content, "/Type /Page") || strings.ContainsRune(content, '\x00') {
		return models.ContentPDF
	}

	if len(trimmed) < 50 {
		return models.ContentErrorPage
	}
	if len(trimmed) < 512 && (strings.Contains(lower, "page not found") || strings.Contains(lower, "404 not found")) {
		return models.ContentErrorPage
	}

	return models.ContentHTML
}

// urlCandidates orders the URLs to try: HTTPS before HTTP when the input is
// plain HTTP.
func urlCandidates(rawURL string) []string {
	if rawURL == "" {
		return nil
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil
	}

	if parsed.Scheme == "http" {
		secure := *parsed
		secure.Scheme = "https"
		return []string{secure.String(), parsed.String()}
	}
	return []string{parsed.String()}
}

// preferKind keeps the most informative rejection reason for the caller's
// error message: bot-blocked over pdf over error-page over empty.
func preferKind(current, next models.ContentKind) models.ContentKind {
	rank := func(k models.ContentKind) int {
		switch k {
		case models.ContentBotBlocked:
			return 3
		case models.ContentPDF:
			return 2
		case models.ContentErrorPage:
			return 1
		default:
			return 0
		}
	}
	if rank(next) > rank(current) {
		return next
	}
	return current
}
