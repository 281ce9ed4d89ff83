package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/deadpage-hunter/pkg/utils"
)

const archivedURLPrefix = "deadpage:archived:"

// VisitedRepoImpl remembers recently archived URLs as expiring Redis keys.
type VisitedRepoImpl struct {
	client redis.UniversalClient
}

// NewVisitedRepo creates a new instance of VisitedRepoImpl.
func NewVisitedRepo(client redis.UniversalClient) *VisitedRepoImpl {
	return &VisitedRepoImpl{client: client}
}

func (r *VisitedRepoImpl) key(url string) string {
	return archivedURLPrefix + utils.HashURL(url)
}

// MarkVisited sets the marker key with an expiry.
func (r *VisitedRepoImpl) MarkVisited(ctx context.Context, url string, expiry time.Duration) error {
	return r.client.SetEx(ctx, r.key(url), "1", expiry).Err()
}

// IsVisited checks for the marker key.
func (r *VisitedRepoImpl) IsVisited(ctx context.Context, url string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(url)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RemoveVisited deletes the marker key.
func (r *VisitedRepoImpl) RemoveVisited(ctx context.Context, url string) error {
	return r.client.Del(ctx, r.key(url)).Err()
}
