package entity

import "time"

// ReportStatus is the lifecycle state of a row in reported_urls.
type ReportStatus string

const (
	ReportPending       ReportStatus = "PENDING"
	ReportProcessing    ReportStatus = "PROCESSING"
	ReportConfirmedDead ReportStatus = "CONFIRMED_DEAD"
)

// ReportedURL mirrors the `reported_urls` PostgreSQL table schema.
type ReportedURL struct {
	ID         int64
	URL        string
	Source     string
	Status     ReportStatus
	ReportedAt time.Time
}

// VerifyResult is the outcome of re-checking a reported URL.
type VerifyResult struct {
	URL    string
	Dead   bool
	Reason string // "404 Not Found", "Timeout", "Alive (200)" ...
}
