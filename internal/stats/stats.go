// Package stats tracks per-article view and like counters.
package stats

import (
	"context"

	"inkwell/api/internal/store"
)

// Counter records article engagement. The Redis implementation deduplicates
// views per client per day; the Postgres fallback keeps the counts durable
// when Redis is not configured.
type Counter interface {
	// RecordView bumps the view counter for an article. clientKey identifies
	// the viewer (a hash of their address) so repeat views within the same
	// day do not count twice.
	RecordView(ctx context.Context, articleID, clientKey string) (int64, error)
	AddLike(ctx context.Context, articleID string) (int64, error)
	RemoveLike(ctx context.Context, articleID string) (int64, error)
	Get(ctx context.Context, articleID string) (store.ArticleStats, error)
}
