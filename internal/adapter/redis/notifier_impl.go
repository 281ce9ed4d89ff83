package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/user/deadpage-hunter/internal/entity"
)

// Notifier publishes notifications on a Redis pub/sub channel.
type Notifier struct {
	client  redis.UniversalClient
	channel string
}

// NewNotifier creates a publisher for channel.
func NewNotifier(client redis.UniversalClient, channel string) *Notifier {
	return &Notifier{client: client, channel: channel}
}

// Notify publishes n as JSON.
func (n *Notifier) Notify(ctx context.Context, note entity.Notification) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return n.client.Publish(ctx, n.channel, payload).Err()
}

// Subscribe delivers notifications to fn until ctx is done.
func (n *Notifier) Subscribe(ctx context.Context, fn func(entity.Notification)) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var note entity.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &note); err != nil {
				slog.Warn("Dropping malformed notification", "channel", n.channel, "error", err)
				continue
			}
			fn(note)
		}
	}
}
