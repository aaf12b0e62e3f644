package models

// ContentKind tags what the fetcher believes a response body actually is.
type ContentKind string

const (
	ContentHTML       ContentKind = "html"
	ContentBotBlocked ContentKind = "bot-blocked"
	ContentPDF        ContentKind = "pdf-binary"
	ContentErrorPage  ContentKind = "error-page"
	ContentEmpty      ContentKind = "empty"
)

// FetchResult is the outcome of resolving one URL through the transport list.
// Never persisted; consumed by the locator and the extractor.
type FetchResult struct {
	URL        string      `json:"url"`
	Content    string      `json:"-"`
	Kind       ContentKind `json:"kind"`
	StatusCode int         `json:"status_code,omitempty"`
	Transport  string      `json:"transport,omitempty"`
}

// Usable reports whether the content can be handed to HTML-based stages.
func (f *FetchResult) Usable() bool {
	return f != nil && f.Kind == ContentHTML && f.Content != ""
}
