package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestCounter(t *testing.T) (*RedisCounter, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	counter, err := NewRedisCounter("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis counter: %v", err)
	}
	return counter, s
}

func TestNewRedisCounter(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	counter, err := NewRedisCounter("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisCounter failed: %v", err)
	}
	defer counter.Close()

	ctx := context.Background()
	if err := counter.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRecordViewDedupesPerClient(t *testing.T) {
	counter, s := setupTestCounter(t)
	defer counter.Close()
	defer s.Close()

	ctx := context.Background()

	views, err := counter.RecordView(ctx, "art-1", "client-a")
	if err != nil {
		t.Fatalf("RecordView failed: %v", err)
	}
	if views != 1 {
		t.Errorf("expected 1 view, got %d", views)
	}

	// Same client again today: no increment.
	views, err = counter.RecordView(ctx, "art-1", "client-a")
	if err != nil {
		t.Fatalf("RecordView repeat failed: %v", err)
	}
	if views != 1 {
		t.Errorf("expected view count to stay at 1, got %d", views)
	}

	// A different client does count.
	views, err = counter.RecordView(ctx, "art-1", "client-b")
	if err != nil {
		t.Fatalf("RecordView second client failed: %v", err)
	}
	if views != 2 {
		t.Errorf("expected 2 views, got %d", views)
	}
}

func TestRecordViewSeenSetExpires(t *testing.T) {
	counter, s := setupTestCounter(t)
	defer counter.Close()
	defer s.Close()

	ctx := context.Background()

	if _, err := counter.RecordView(ctx, "art-1", "client-a"); err != nil {
		t.Fatalf("RecordView failed: %v", err)
	}

	// After the dedupe set expires the same client counts again.
	s.FastForward(49 * time.Hour)

	views, err := counter.RecordView(ctx, "art-1", "client-a")
	if err != nil {
		t.Fatalf("RecordView after expiry failed: %v", err)
	}
	if views != 2 {
		t.Errorf("expected 2 views after dedupe expiry, got %d", views)
	}
}

func TestViewsIsolatedPerArticle(t *testing.T) {
	counter, s := setupTestCounter(t)
	defer counter.Close()
	defer s.Close()

	ctx := context.Background()

	if _, err := counter.RecordView(ctx, "art-1", "client-a"); err != nil {
		t.Fatalf("RecordView art-1 failed: %v", err)
	}
	if _, err := counter.RecordView(ctx, "art-2", "client-a"); err != nil {
		t.Fatalf("RecordView art-2 failed: %v", err)
	}

	stats1, err := counter.Get(ctx, "art-1")
	if err != nil {
		t.Fatalf("Get art-1 failed: %v", err)
	}
	if stats1.Views != 1 {
		t.Errorf("expected art-1 views 1, got %d", stats1.Views)
	}

	stats2, err := counter.Get(ctx, "art-2")
	if err != nil {
		t.Fatalf("Get art-2 failed: %v", err)
	}
	if stats2.Views != 1 {
		t.Errorf("expected art-2 views 1, got %d", stats2.Views)
	}
}

func TestLikesIncrementAndClamp(t *testing.T) {
	counter, s := setupTestCounter(t)
	defer counter.Close()
	defer s.Close()

	ctx := context.Background()

	likes, err := counter.AddLike(ctx, "art-1")
	if err != nil {
		t.Fatalf("AddLike failed: %v", err)
	}
	if likes != 1 {
		t.Errorf("expected 1 like, got %d", likes)
	}

	likes, err = counter.AddLike(ctx, "art-1")
	if err != nil {
		t.Fatalf("AddLike failed: %v", err)
	}
	if likes != 2 {
		t.Errorf("expected 2 likes, got %d", likes)
	}

	likes, err = counter.RemoveLike(ctx, "art-1")
	if err != nil {
		t.Fatalf("RemoveLike failed: %v", err)
	}
	if likes != 1 {
		t.Errorf("expected 1 like after removal, got %d", likes)
	}

	// Unliking past zero clamps at zero.
	if _, err := counter.RemoveLike(ctx, "art-1"); err != nil {
		t.Fatalf("RemoveLike failed: %v", err)
	}
	likes, err = counter.RemoveLike(ctx, "art-1")
	if err != nil {
		t.Fatalf("RemoveLike below zero failed: %v", err)
	}
	if likes != 0 {
		t.Errorf("expected likes clamped at 0, got %d", likes)
	}
}

func TestGetUnknownArticleIsZero(t *testing.T) {
	counter, s := setupTestCounter(t)
	defer counter.Close()
	defer s.Close()

	stats, err := counter.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stats.Views != 0 || stats.Likes != 0 {
		t.Errorf("expected zero stats, got views=%d likes=%d", stats.Views, stats.Likes)
	}
}
