package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"VeggieMate/models"
	"VeggieMate/utils"
)

func newTestAnalysisService(locator MenuLocator, fetcher Fetcher, extractor ItemExtractor, classifier ItemClassifier) *AnalysisService {
	return &AnalysisService{
		locator:           locator,
		fetcher:           fetcher,
		extractor:         extractor,
		classifier:        classifier,
		diag:              utils.NewDiagnostics(64),
		restaurantTimeout: time.Minute,
	}
}

func TestComputeTier(t *testing.T) {
	tests := []struct {
		veg, total int
		want       models.Tier
	}{
		{0, 0, models.TierUnknown},
		{0, 20, models.TierPoor},
		{1, 20, models.TierPoor},
		{2, 20, models.TierFair},
		{1, 5, models.TierFair}, // ratio 0.2
		{5, 30, models.TierGood},
		{4, 10, models.TierGood}, // ratio 0.4
		{8, 40, models.TierExcellent},
		{12, 12, models.TierExcellent},
	}
	for _, tt := range tests {
		if got := ComputeTier(tt.veg, tt.total); got != tt.want {
			t.Errorf("ComputeTier(%d, %d) = %q, want %q", tt.veg, tt.total, got, tt.want)
		}
	}

	// Adding vegetarian items at a fixed total never lowers the tier.
	prev := models.TierUnknown
	for veg := 0; veg <= 20; veg++ {
		got := ComputeTier(veg, 20)
		if got.Rank() < prev.Rank() {
			t.Fatalf("tier dropped from %q to %q at veg=%d", prev, got, veg)
		}
		prev = got
	}
}

func TestMeetsCriteria(t *testing.T) {
	if MeetsCriteria(models.TierUnknown, models.TierUnknown) {
		t.Error("unknown must never qualify, even against an unknown minimum")
	}
	if !MeetsCriteria(models.TierGood, models.TierFair) {
		t.Error("good should meet a fair minimum")
	}
	if MeetsCriteria(models.TierFair, models.TierGood) {
		t.Error("fair should not meet a good minimum")
	}
	if !MeetsCriteria(models.TierExcellent, models.TierExcellent) {
		t.Error("a tier should meet itself as minimum")
	}
}

func TestAggregate(t *testing.T) {
	batches := []models.ClassificationBatchResult{
		{
			Items:           []models.ClassifiedItem{classified("Veggie Burger", ""), classified("Lentil Soup", "")},
			Confidence:      0.8,
			Tier:            models.TierFair,
			Recommendations: []string{"Veggie Burger"},
			TotalItems:      25,
		},
		{
			Items:           []models.ClassifiedItem{classified("Falafel Wrap", "")},
			Confidence:      0.6,
			Tier:            models.TierGood,
			Recommendations: []string{"Veggie Burger", "Falafel Wrap"},
			TotalItems:      15,
		},
		{
			// A failed batch contributes nothing to the confidence average.
			Confidence: 0,
			TotalItems: 10,
		},
	}

	analysis := Aggregate(batches, "r1", "Cafe Verde")
	if analysis.VegetarianCount != 3 || analysis.TotalItems != 50 {
		t.Errorf("counts = %d/%d, want 3/50", analysis.VegetarianCount, analysis.TotalItems)
	}
	if analysis.VegetarianCount > analysis.TotalItems {
		t.Error("vegetarian count exceeds total items")
	}
	if analysis.Confidence != 0.7 {
		t.Errorf("confidence = %.2f, want 0.70 (average over reporting batches)", analysis.Confidence)
	}
	if len(analysis.Recommendations) != 2 {
		t.Errorf("recommendations = %v, want deduplicated pair", analysis.Recommendations)
	}
	// 3 of 50 computes as poor, but the strongest batch said good.
	if analysis.Tier != models.TierGood {
		t.Errorf("tier = %q, want the optimistic upgrade to good", analysis.Tier)
	}
}

func TestScrapeAndAnalyzeNoWebsite(t *testing.T) {
	svc := newTestAnalysisService(&fakeLocator{}, &fakeFetcher{}, &fakeExtractor{}, &fakeClassifier{})
	analysis := svc.ScrapeAndAnalyze(context.Background(), "", "r1", "Cafe Verde")
	if analysis.Method != models.MethodNoWebsite {
		t.Errorf("method = %q, want %q", analysis.Method, models.MethodNoWebsite)
	}
	if analysis.Tier != models.TierUnknown || len(analysis.Items) != 0 {
		t.Errorf("analysis = tier %q with %d items, want unknown and none", analysis.Tier, len(analysis.Items))
	}
	if analysis.Reason == "" {
		t.Error("failure analyses must carry a reason")
	}
}

func TestScrapeAndAnalyzeResolvesPlaceID(t *testing.T) {
	locator := &fakeLocator{urls: map[string]string{"https://a.test": "https://a.test/menu"}}
	fetcher := &fakeFetcher{pages: map[string]*models.FetchResult{
		"https://a.test/menu": {URL: "https://a.test/menu", Kind: models.ContentHTML, Content: "<html>menu</html>", StatusCode: 200},
	}}
	extractor := &fakeExtractor{items: make([]models.MenuItem, 10), method: ExtractionTraditional}
	classifier := &fakeClassifier{
		batches: []models.ClassificationBatchResult{{
			Items:      []models.ClassifiedItem{classified("Veggie Burger", "")},
			Confidence: 0.8,
			Tier:       models.TierFair,
			TotalItems: 10,
		}},
		method: models.MethodAIAnalysis,
	}
	svc := newTestAnalysisService(locator, fetcher, extractor, classifier)
	svc.places = &fakePlaceDetailer{details: map[string]*models.PlaceDetails{
		"place-1": {PlaceID: "place-1", Website: "https://a.test"},
	}}

	// A caller holding only the place id still gets a full analysis.
	analysis := svc.ScrapeAndAnalyze(context.Background(), "", "place-1", "Cafe Verde")
	if analysis.Method != models.MethodAIAnalysis {
		t.Errorf("method = %q, want %q after place resolution", analysis.Method, models.MethodAIAnalysis)
	}
	if analysis.RestaurantID != "place-1" {
		t.Errorf("RestaurantID = %q, want the place id", analysis.RestaurantID)
	}

	// An id the details lookup cannot resolve degrades to no-website.
	analysis = svc.ScrapeAndAnalyze(context.Background(), "", "place-404", "Lost Cafe")
	if analysis.Method != models.MethodNoWebsite {
		t.Errorf("unresolvable id: method = %q, want %q", analysis.Method, models.MethodNoWebsite)
	}

	// An explicit website URL wins; no lookup happens for it.
	analysis = svc.ScrapeAndAnalyze(context.Background(), "https://a.test", "place-404", "Cafe Verde")
	if analysis.Method != models.MethodAIAnalysis {
		t.Errorf("explicit url: method = %q, want %q", analysis.Method, models.MethodAIAnalysis)
	}
}

// stalledLocator blocks until the pipeline context expires.
type stalledLocator struct{}

func (stalledLocator) Locate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestScrapeAndAnalyzeBoundedByTimeout(t *testing.T) {
	svc := newTestAnalysisService(stalledLocator{}, &fakeFetcher{}, &fakeExtractor{}, &fakeClassifier{})
	svc.restaurantTimeout = 50 * time.Millisecond

	start := time.Now()
	analysis := svc.ScrapeAndAnalyze(context.Background(), "https://slow.test", "r1", "Cafe Verde")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("analysis ran %v, want it cut off by the restaurant timeout", elapsed)
	}
	if analysis.Method != models.MethodFailed || analysis.Tier != models.TierUnknown {
		t.Errorf("analysis = method %q tier %q, want failed/unknown", analysis.Method, analysis.Tier)
	}
	if analysis.Reason == "" {
		t.Error("timed-out analysis must carry a reason")
	}
}

func TestScrapeAndAnalyzeLocateFailures(t *testing.T) {
	tests := []struct {
		err        error
		wantMethod models.AnalysisMethod
	}{
		{utils.ErrBotProtectionDetected, models.MethodScrapingFailed},
		{utils.ErrNetworkUnreachable, models.MethodScrapingFailed},
		{utils.ErrBinaryContentDetected, models.MethodFailed},
		{utils.ErrMenuNotFound, models.MethodFailed},
	}

	for _, tt := range tests {
		locator := &fakeLocator{errs: map[string]error{"https://x.test": tt.err}}
		svc := newTestAnalysisService(locator, &fakeFetcher{}, &fakeExtractor{}, &fakeClassifier{})
		analysis := svc.ScrapeAndAnalyze(context.Background(), "https://x.test", "r1", "Cafe Verde")
		if analysis.Method != tt.wantMethod {
			t.Errorf("locate error %v: method = %q, want %q", tt.err, analysis.Method, tt.wantMethod)
		}
		if analysis.Tier != models.TierUnknown {
			t.Errorf("locate error %v: tier = %q, want unknown", tt.err, analysis.Tier)
		}
	}
}

func TestAnalyzeSelectionValidation(t *testing.T) {
	svc := newTestAnalysisService(&fakeLocator{}, &fakeFetcher{}, &fakeExtractor{}, &fakeClassifier{})

	if _, err := svc.AnalyzeSelection(context.Background(), nil, models.TierFair, nil); !errors.Is(err, utils.ErrSelectionEmpty) {
		t.Errorf("empty selection: err = %v, want ErrSelectionEmpty", err)
	}

	six := make([]models.Restaurant, MaxSelectionSize+1)
	if _, err := svc.AnalyzeSelection(context.Background(), six, models.TierFair, nil); !errors.Is(err, utils.ErrSelectionTooLarge) {
		t.Errorf("oversized selection: err = %v, want ErrSelectionTooLarge", err)
	}
}

func TestAnalyzeSelectionIsolatesFailures(t *testing.T) {
	restaurants := []models.Restaurant{
		{ID: "a", Name: "Cafe Verde", Website: "https://a.test"},
		{ID: "b", Name: "Blocked Bistro", Website: "https://b.test"},
		{ID: "c", Name: "No Site Diner"},
	}

	locator := &fakeLocator{
		urls: map[string]string{"https://a.test": "https://a.test/menu"},
		errs: map[string]error{"https://b.test": utils.ErrBotProtectionDetected},
	}
	fetcher := &fakeFetcher{pages: map[string]*models.FetchResult{
		"https://a.test/menu": {URL: "https://a.test/menu", Kind: models.ContentHTML, Content: "<html>menu</html>", StatusCode: 200},
	}}
	extractor := &fakeExtractor{
		items:  make([]models.MenuItem, 10),
		method: ExtractionTraditional,
	}
	classifier := &fakeClassifier{
		batches: []models.ClassificationBatchResult{{
			Items:      []models.ClassifiedItem{classified("Veggie Burger", ""), classified("Lentil Soup", ""), classified("Falafel Wrap", ""), classified("Tofu Curry", ""), classified("Caprese Salad", "")},
			Confidence: 0.8,
			Tier:       models.TierGood,
			TotalItems: 10,
		}},
		method: models.MethodAIAnalysis,
	}
	svc := newTestAnalysisService(locator, fetcher, extractor, classifier)

	var mu sync.Mutex
	var events []models.AnalysisProgress
	report, err := svc.AnalyzeSelection(context.Background(), restaurants, models.TierFair, func(p models.AnalysisProgress) {
		mu.Lock()
		events = append(events, p)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("AnalyzeSelection: %v", err)
	}

	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}
	// Results come back in the input order, whatever order the pipelines
	// finished in.
	for i, want := range []string{"a", "b", "c"} {
		if report.Results[i].RestaurantID != want {
			t.Errorf("results[%d].RestaurantID = %q, want %q", i, report.Results[i].RestaurantID, want)
		}
	}

	a, b, c := report.Results[0], report.Results[1], report.Results[2]
	if a.Tier != models.TierGood || !a.MeetsCriteria || a.Method != models.MethodAIAnalysis {
		t.Errorf("restaurant a = %+v, want good tier meeting criteria", a)
	}
	if b.Method != models.MethodScrapingFailed || b.MeetsCriteria {
		t.Errorf("restaurant b = %+v, want scraping-failed not qualifying", b)
	}
	if c.Method != models.MethodNoWebsite || c.MeetsCriteria {
		t.Errorf("restaurant c = %+v, want no-website not qualifying", c)
	}
	if len(report.Qualifying) != 1 || report.Qualifying[0] != "a" {
		t.Errorf("Qualifying = %v, want [a]", report.Qualifying)
	}

	started, terminal := 0, 0
	maxCompleted := 0
	for _, ev := range events {
		switch ev.Stage {
		case "started":
			started++
		case "completed", "failed":
			terminal++
		}
		if ev.Completed > maxCompleted {
			maxCompleted = ev.Completed
		}
		if ev.Total != 3 {
			t.Errorf("event total = %d, want 3", ev.Total)
		}
	}
	if started != 3 || terminal != 3 {
		t.Errorf("got %d started and %d terminal events, want 3 each", started, terminal)
	}
	if maxCompleted != 3 {
		t.Errorf("completed counter peaked at %d, want 3", maxCompleted)
	}
}

type panicLocator struct{}

func (panicLocator) Locate(context.Context, string) (string, error) {
	panic("locator blew up")
}

func TestAnalyzeSelectionRecoversPanics(t *testing.T) {
	svc := newTestAnalysisService(panicLocator{}, &fakeFetcher{}, &fakeExtractor{}, &fakeClassifier{})
	restaurants := []models.Restaurant{{ID: "a", Name: "Cafe Verde", Website: "https://a.test"}}

	report, err := svc.AnalyzeSelection(context.Background(), restaurants, models.TierFair, nil)
	if err != nil {
		t.Fatalf("AnalyzeSelection: %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(report.Results))
	}
	result := report.Results[0]
	if result.Method != models.MethodFailed || result.Tier != models.TierUnknown || result.MeetsCriteria {
		t.Errorf("panicked pipeline yielded %+v, want failed/unknown", result)
	}
}
