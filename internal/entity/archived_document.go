package entity

import "time"

// Snapshot is the closest Wayback Machine capture of a URL.
type Snapshot struct {
	URL       string
	Timestamp string // YYYYMMDDhhmmss as returned by the availability API
}

// ArchivedDocument mirrors the `archived_documents` PostgreSQL table schema.
type ArchivedDocument struct {
	OriginalURL      string
	ArchiveTimestamp *time.Time
	CleanedText      string
}
