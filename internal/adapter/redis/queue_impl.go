package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const deadURLQueueKey = "deadpage:dead_urls"

// QueueRepoImpl provides a concrete implementation for the QueueRepository interface using Redis Lists.
type QueueRepoImpl struct {
	client redis.UniversalClient
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client redis.UniversalClient) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Push adds a URL to the left side of the Redis list (acting as a queue).
func (r *QueueRepoImpl) Push(ctx context.Context, url string) error {
	return r.client.LPush(ctx, deadURLQueueKey, url).Err()
}

// Pop removes and returns a URL from the right side of the list.
// It returns redis.Nil when the queue is empty.
func (r *QueueRepoImpl) Pop(ctx context.Context) (string, error) {
	return r.client.RPop(ctx, deadURLQueueKey).Result()
}

// Size returns the current number of items in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, deadURLQueueKey).Result()
}
