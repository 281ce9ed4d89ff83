package repository

import (
	"context"

	"github.com/user/deadpage-hunter/internal/entity"
)

// SubmissionClient posts a URL to the collection endpoint. Failures are
// reported inside the response, never as a Go error.
type SubmissionClient interface {
	Submit(ctx context.Context, url string) entity.SubmissionResponse
}

// Notifier raises a user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, n entity.Notification) error
}
