package repository

import (
	"context"

	"github.com/user/deadpage-hunter/internal/entity"
)

// ReportedURLRepository manages rows the collection endpoint wrote to reported_urls.
type ReportedURLRepository interface {
	// ClaimPending moves up to limit PENDING rows to PROCESSING and returns them.
	ClaimPending(ctx context.Context, limit int) ([]*entity.ReportedURL, error)
	// MarkConfirmedDead flags a URL as verified dead.
	MarkConfirmedDead(ctx context.Context, url string) error
	// Delete removes a URL that turned out to be alive.
	Delete(ctx context.Context, url string) error
	// Release returns claimed rows that were never settled to PENDING.
	Release(ctx context.Context, ids []int64) error
}

// StatusChecker re-checks a URL over plain HTTP.
type StatusChecker interface {
	Check(ctx context.Context, url string) entity.VerifyResult
}
