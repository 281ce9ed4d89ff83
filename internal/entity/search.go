package entity

import "time"

// SearchQuery is a full-text query over archived document text.
type SearchQuery struct {
	Text     string
	Language string // text search configuration, "indonesian" or "english"
	Limit    int
}

// SearchResult is one ranked archived document with a highlighted excerpt.
type SearchResult struct {
	OriginalURL      string
	Snippet          string
	ArchiveTimestamp *time.Time
	Category         string
}
