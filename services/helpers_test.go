package services

import (
	"context"
	"fmt"

	"VeggieMate/models"
	"VeggieMate/utils"
)

// fakeCompleter answers prompts with canned responses, switched on prompt
// content.
type fakeCompleter struct {
	respond func(prompt string) (string, error)
	calls   int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	if f.respond == nil {
		return "", fmt.Errorf("no responder configured")
	}
	return f.respond(prompt)
}

// failingCompleter always errors, simulating an unavailable AI provider.
type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, string) (string, error) {
	return "", &utils.AIProviderError{Class: utils.AIErrTimeout, Err: context.DeadlineExceeded}
}

// fakeFetcher serves canned fetch results by URL.
type fakeFetcher struct {
	pages map[string]*models.FetchResult
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) *models.FetchResult {
	if page, ok := f.pages[url]; ok {
		return page
	}
	return &models.FetchResult{URL: url, Kind: models.ContentEmpty}
}

// Pipeline stage fakes for orchestrator tests.

type fakeLocator struct {
	urls map[string]string
	errs map[string]error
}

func (f *fakeLocator) Locate(_ context.Context, homepageURL string) (string, error) {
	if err, ok := f.errs[homepageURL]; ok {
		return "", err
	}
	if url, ok := f.urls[homepageURL]; ok {
		return url, nil
	}
	return "", fmt.Errorf("locate %s: %w", homepageURL, utils.ErrMenuNotFound)
}

type fakeExtractor struct {
	items  []models.MenuItem
	method string
}

func (f *fakeExtractor) Extract(context.Context, *models.FetchResult) ([]models.MenuItem, string) {
	return f.items, f.method
}

type fakePlaceDetailer struct {
	details map[string]*models.PlaceDetails
}

func (f *fakePlaceDetailer) Details(_ context.Context, placeID string) (*models.PlaceDetails, error) {
	if d, ok := f.details[placeID]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("place %s not found", placeID)
}

type fakeClassifier struct {
	batches []models.ClassificationBatchResult
	method  models.AnalysisMethod
	err     error
}

func (f *fakeClassifier) Classify(context.Context, []models.MenuItem, string) ([]models.ClassificationBatchResult, models.AnalysisMethod, error) {
	return f.batches, f.method, f.err
}
