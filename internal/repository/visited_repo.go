package repository

import (
	"context"
	"time"
)

// VisitedRepository remembers URLs the archive retriever handled recently.
type VisitedRepository interface {
	// MarkVisited marks a URL as visited with a specific expiry time.
	MarkVisited(ctx context.Context, url string, expiry time.Duration) error
	// IsVisited checks if a URL has been visited recently.
	IsVisited(ctx context.Context, url string) (bool, error)
	// RemoveVisited forgets a URL so the next run processes it again.
	RemoveVisited(ctx context.Context, url string) error
}
