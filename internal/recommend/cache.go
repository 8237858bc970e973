// internal/recommend/cache.go
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tablespin/tablespin/internal/models"
)

// DefaultCacheTTL bounds how long a (location, mood) result is served from
// Redis before the upstream is asked again.
const DefaultCacheTTL = 15 * time.Minute

// CachedProvider is a read-through Redis cache in front of another Provider.
// Cache failures are logged and otherwise ignored: Redis being down degrades
// to calling the upstream every time, never to an error for the client.
type CachedProvider struct {
	Next   Provider
	Client *redis.Client
	TTL    time.Duration
	Logger *logrus.Logger
}

func (c *CachedProvider) Recommend(ctx context.Context, location, mood string) ([]models.Restaurant, error) {
	key := cacheKey(location, mood)

	data, err := c.Client.Get(ctx, key).Bytes()
	if err == nil {
		var cached []models.Restaurant
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		c.Logger.Warnf("recommend cache: discarding corrupt entry %s", key)
	} else if !errors.Is(err, redis.Nil) {
		c.Logger.Warnf("recommend cache: read %s failed: %v", key, err)
	}

	recs, err := c.Next.Recommend(ctx, location, mood)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(recs); err == nil {
		ttl := c.TTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		if err := c.Client.Set(ctx, key, data, ttl).Err(); err != nil {
			c.Logger.Warnf("recommend cache: write %s failed: %v", key, err)
		}
	}
	return recs, nil
}

func cacheKey(location, mood string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return fmt.Sprintf("tablespin:recs:%s:%s", norm(location), norm(mood))
}
