package response

import "time"

// TabResponse describes the browser's active tab.
type TabResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	// Active is always true; kept so the payload mirrors entity.Tab.
	Active bool `json:"active"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// SearchResult is one archived document matching a search query.
type SearchResult struct {
	OriginalURL      string     `json:"original_url"`
	Snippet          string     `json:"snippet"`
	ArchiveTimestamp *time.Time `json:"archive_timestamp"`
	Category         string     `json:"category,omitempty"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
