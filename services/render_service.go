package services

import (
	"context"
	"log"
	"time"

	"VeggieMate/config/environment"

	"github.com/chromedp/chromedp"
)

type renderJob struct {
	url    string
	ctx    context.Context
	result chan renderResult
}

type renderResult struct {
	html string
	err  error
}

// RenderService is the browser-rendering backend: a fixed-size pool of
// workers that load a page in headless Chrome and return the rendered HTML.
// It is the fetcher's last-resort transport for JavaScript-only sites.
type RenderService struct {
	jobs chan renderJob
}

// NewRenderService starts the worker pool. Chrome itself is only launched
// when a job arrives.
func NewRenderService() *RenderService {
	s := &RenderService{jobs: make(chan renderJob)}
	for i := 0; i < environment.GetRenderWorkers(); i++ {
		go s.worker(i)
	}
	return s
}

// Render loads url in a headless browser and returns the rendered HTML.
func (s *RenderService) Render(ctx context.Context, url string) (string, error) {
	job := renderJob{url: url, ctx: ctx, result: make(chan renderResult, 1)}

	select {
	case s.jobs <- job:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-job.result:
		return res.html, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *RenderService) worker(id int) {
	for job := range s.jobs {
		html, err := renderPage(job.ctx, job.url)
		if err != nil {
			log.Printf("render worker %d: %s failed: %v", id, job.url, err)
		}
		job.result <- renderResult{html: html, err: err}
	}
}

func renderPage(parent context.Context, url string) (string, error) {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var pageHTML string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &pageHTML),
	)
	if err != nil {
		return "", err
	}
	return pageHTML, nil
}
