package stats

import (
	"context"
	"fmt"
	"time"

	"inkwell/api/internal/store"
	"github.com/redis/go-redis/v9"
)

// RedisCounter implements Counter on top of Redis.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter connects to Redis and verifies the connection.
func NewRedisCounter(redisURL string) (*RedisCounter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCounter{client: client, prefix: "stats:"}, nil
}

// NewRedisCounterWithClient creates a counter from an existing Redis client.
func NewRedisCounterWithClient(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client, prefix: "stats:"}
}

func (c *RedisCounter) viewsKey(articleID string) string {
	return c.prefix + "views:" + articleID
}

func (c *RedisCounter) likesKey(articleID string) string {
	return c.prefix + "likes:" + articleID
}

func (c *RedisCounter) seenKey(articleID string, day time.Time) string {
	return c.prefix + "seen:" + articleID + ":" + day.UTC().Format("2006-01-02")
}

// RecordView increments the view counter unless the client already viewed
// the article today. The per-day dedupe set expires after 48 hours so stale
// sets do not accumulate.
func (c *RedisCounter) RecordView(ctx context.Context, articleID, clientKey string) (int64, error) {
	seen := c.seenKey(articleID, time.Now())
	added, err := c.client.SAdd(ctx, seen, clientKey).Result()
	if err != nil {
		return 0, fmt.Errorf("record viewer: %w", err)
	}
	if err := c.client.Expire(ctx, seen, 48*time.Hour).Err(); err != nil {
		return 0, fmt.Errorf("expire viewer set: %w", err)
	}

	if added == 0 {
		// Already counted today.
		views, err := c.client.Get(ctx, c.viewsKey(articleID)).Int64()
		if err != nil && err != redis.Nil {
			return 0, fmt.Errorf("get views: %w", err)
		}
		return views, nil
	}

	views, err := c.client.Incr(ctx, c.viewsKey(articleID)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

func (c *RedisCounter) AddLike(ctx context.Context, articleID string) (int64, error) {
	likes, err := c.client.Incr(ctx, c.likesKey(articleID)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment likes: %w", err)
	}
	return likes, nil
}

// RemoveLike decrements the like counter, clamping at zero.
func (c *RedisCounter) RemoveLike(ctx context.Context, articleID string) (int64, error) {
	likes, err := c.client.Decr(ctx, c.likesKey(articleID)).Result()
	if err != nil {
		return 0, fmt.Errorf("decrement likes: %w", err)
	}
	if likes < 0 {
		if err := c.client.Set(ctx, c.likesKey(articleID), 0, 0).Err(); err != nil {
			return 0, fmt.Errorf("clamp likes: %w", err)
		}
		return 0, nil
	}
	return likes, nil
}

func (c *RedisCounter) Get(ctx context.Context, articleID string) (store.ArticleStats, error) {
	s := store.ArticleStats{ArticleID: articleID}

	views, err := c.client.Get(ctx, c.viewsKey(articleID)).Int64()
	if err != nil && err != redis.Nil {
		return store.ArticleStats{}, fmt.Errorf("get views: %w", err)
	}
	s.Views = views

	likes, err := c.client.Get(ctx, c.likesKey(articleID)).Int64()
	if err != nil && err != redis.Nil {
		return store.ArticleStats{}, fmt.Errorf("get likes: %w", err)
	}
	s.Likes = likes

	return s, nil
}

// Close closes the Redis connection.
func (c *RedisCounter) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *RedisCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
