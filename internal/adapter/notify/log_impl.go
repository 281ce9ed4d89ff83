package notify

import (
	"context"
	"log/slog"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
)

// LogNotifier writes notifications to the structured log. Used when no Redis
// is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n entity.Notification) error {
	slog.Info(n.Message, "title", n.Title, "url", n.URL, "kind", "notification")
	return nil
}

// Fanout delivers a notification to every notifier and returns the first error.
type Fanout []repository.Notifier

func (f Fanout) Notify(ctx context.Context, n entity.Notification) error {
	var first error
	for _, target := range f {
		if err := target.Notify(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
