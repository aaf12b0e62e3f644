package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"VeggieMate/models"
	"VeggieMate/utils"

	"github.com/temoto/robotstxt"
)

func newTestFetchService(renderer Renderer) *FetchService {
	return &FetchService{
		client:   &http.Client{Timeout: 5 * time.Second},
		renderer: renderer,
		diag:     utils.NewDiagnostics(64),
		robots:   make(map[string]*robotstxt.RobotsData),
	}
}

var longHTML = "<html><body>" + strings.Repeat("<p>Seasonal vegetable menu</p>", 30) + "</body></html>"

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  int
		want    models.ContentKind
	}{
		{"empty body", "", 200, models.ContentEmpty},
		{"whitespace only", "  \n\t ", 200, models.ContentEmpty},
		{"normal page", longHTML, 200, models.ContentHTML},
		{"server error", longHTML, 503, models.ContentErrorPage},
		{"cloudflare interstitial", "<html>Just a moment...</html>", 200, models.ContentBotBlocked},
		{"browser check", "<html>Checking your browser before accessing</html>", 403, models.ContentBotBlocked},
		{"captcha wall", longHTML + "please solve this CAPTCHA", 200, models.ContentBotBlocked},
		{"pdf document", "%PDF-1.4\n...", 200, models.ContentPDF},
		{"tiny stub", "<html></html>", 200, models.ContentErrorPage},
		{"short 404 page", "<html><body>Page not found</body></html>", 404, models.ContentErrorPage},
		{"large page behind 404", longHTML, 404, models.ContentHTML},
	}

	for _, tt := range tests {
		if got := ClassifyContent(tt.content, tt.status); got != tt.want {
			t.Errorf("%s: ClassifyContent = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestURLCandidates(t *testing.T) {
	if got := urlCandidates("example.com/menu"); len(got) != 1 || got[0] != "https://example.com/menu" {
		t.Errorf("bare host: %v", got)
	}
	got := urlCandidates("http://example.com/menu")
	if len(got) != 2 || got[0] != "https://example.com/menu" || got[1] != "http://example.com/menu" {
		t.Errorf("plain http should try https first: %v", got)
	}
	if got := urlCandidates("https://example.com"); len(got) != 1 {
		t.Errorf("https input should stay a single candidate: %v", got)
	}
	if got := urlCandidates(""); got != nil {
		t.Errorf("empty input: %v", got)
	}
}

func TestPreferKind(t *testing.T) {
	k := models.ContentEmpty
	k = preferKind(k, models.ContentErrorPage)
	k = preferKind(k, models.ContentBotBlocked)
	k = preferKind(k, models.ContentErrorPage)
	if k != models.ContentBotBlocked {
		t.Errorf("kept %q, want bot-blocked as the most informative", k)
	}
	if got := preferKind(models.ContentPDF, models.ContentErrorPage); got != models.ContentPDF {
		t.Errorf("pdf should outrank error-page, got %q", got)
	}
}

func TestFetchDirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(longHTML))
	}))
	defer server.Close()

	svc := newTestFetchService(nil)
	result := svc.Fetch(context.Background(), server.URL+"/menu")
	if result.Kind != models.ContentHTML {
		t.Fatalf("kind = %q, want html", result.Kind)
	}
	if result.Transport != "direct" {
		t.Errorf("transport = %q, want direct", result.Transport)
	}
	if result.URL != server.URL+"/menu" {
		t.Errorf("url = %q, want %q", result.URL, server.URL+"/menu")
	}
}

func TestFetchGooglebotWalksSoftBotWall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if strings.Contains(r.UserAgent(), "Googlebot") {
			w.Write([]byte(longHTML))
			return
		}
		w.Write([]byte("<html>Just a moment...</html>"))
	}))
	defer server.Close()

	svc := newTestFetchService(nil)
	result := svc.Fetch(context.Background(), server.URL+"/menu")
	if result.Kind != models.ContentHTML {
		t.Fatalf("kind = %q, want html", result.Kind)
	}
	if result.Transport != "googlebot-ua" {
		t.Errorf("transport = %q, want googlebot-ua", result.Transport)
	}
}

func TestFetchRenderFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>Verify you are a human</html>"))
	}))
	defer server.Close()

	renderer := renderFunc(func(ctx context.Context, url string) (string, error) {
		return longHTML, nil
	})
	svc := newTestFetchService(renderer)
	result := svc.Fetch(context.Background(), server.URL+"/menu")
	if result.Kind != models.ContentHTML || result.Transport != "render" {
		t.Errorf("result = kind %q via %q, want html via render", result.Kind, result.Transport)
	}
}

type renderFunc func(ctx context.Context, url string) (string, error)

func (f renderFunc) Render(ctx context.Context, url string) (string, error) { return f(ctx, url) }

func TestFetchKeepsPDFBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("%PDF-1.4\nfake pdf body"))
	}))
	defer server.Close()

	svc := newTestFetchService(nil)
	result := svc.Fetch(context.Background(), server.URL+"/menu.pdf")
	if result.Kind != models.ContentPDF {
		t.Fatalf("kind = %q, want pdf", result.Kind)
	}
	if !strings.HasPrefix(result.Content, "%PDF-") {
		t.Error("pdf bytes were dropped")
	}
	if result.Usable() {
		t.Error("pdf results must not classify as usable HTML")
	}
}

func TestFetchAllTransportsRejected(t *testing.T) {
	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Service Unavailable"))
	}))
	defer server.Close()

	svc := newTestFetchService(nil)
	result := svc.Fetch(context.Background(), server.URL+"/menu")
	if result.Kind != models.ContentErrorPage {
		t.Errorf("kind = %q, want error-page", result.Kind)
	}
	if result.Content != "" {
		t.Errorf("rejected fetch should carry no content, got %d bytes", len(result.Content))
	}
	mu.Lock()
	defer mu.Unlock()
	if hits == 0 {
		t.Error("server was never reached")
	}
}
