package stats

import (
	"context"
	"sync"
	"time"

	"inkwell/api/internal/store"
)

// PostgresCounter implements Counter against the article_stats table. It is
// the fallback when no Redis URL is configured. View dedupe is best effort:
// an in-process set per day, lost on restart.
type PostgresCounter struct {
	store *store.PostgresStore

	mu   sync.Mutex
	day  string
	seen map[string]bool
}

func NewPostgresCounter(s *store.PostgresStore) *PostgresCounter {
	return &PostgresCounter{store: s, seen: make(map[string]bool)}
}

func (c *PostgresCounter) alreadySeen(articleID, clientKey string) bool {
	today := time.Now().UTC().Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.day != today {
		c.day = today
		c.seen = make(map[string]bool)
	}

	key := articleID + ":" + clientKey
	if c.seen[key] {
		return true
	}
	c.seen[key] = true
	return false
}

func (c *PostgresCounter) RecordView(ctx context.Context, articleID, clientKey string) (int64, error) {
	if c.alreadySeen(articleID, clientKey) {
		stats, err := c.store.GetArticleStats(ctx, articleID)
		if err != nil {
			return 0, err
		}
		return stats.Views, nil
	}
	return c.store.IncrementArticleViews(ctx, articleID)
}

func (c *PostgresCounter) AddLike(ctx context.Context, articleID string) (int64, error) {
	return c.store.AddArticleLike(ctx, articleID, 1)
}

func (c *PostgresCounter) RemoveLike(ctx context.Context, articleID string) (int64, error) {
	return c.store.AddArticleLike(ctx, articleID, -1)
}

func (c *PostgresCounter) Get(ctx context.Context, articleID string) (store.ArticleStats, error) {
	return c.store.GetArticleStats(ctx, articleID)
}
