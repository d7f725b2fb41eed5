package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inkwell/api/internal/revision"
	"inkwell/api/internal/store"
)

func publishedArticle(slug string) store.Article {
	content, _ := json.Marshal(map[string]any{
		"block-1": map[string]any{
			"meta": map[string]any{"order": 0},
			"value": []any{
				map[string]any{"type": "heading-two", "children": []any{
					map[string]any{"text": "Intro"},
				}},
			},
		},
		"block-2": map[string]any{
			"meta": map[string]any{"order": 1},
			"value": []any{
				map[string]any{"type": "paragraph", "children": []any{
					map[string]any{"text": "Body text."},
				}},
			},
		},
	})
	return store.Article{
		ID:        "art_1",
		TopicID:   "top_1",
		Slug:      slug,
		Title:     "A Post",
		Content:   content,
		Published: true,
	}
}

func TestGetArticleEndpoint(t *testing.T) {
	fs := &fakeStore{
		getArticleBySlugFn: func(_ context.Context, slug string) (store.Article, error) {
			return publishedArticle(slug), nil
		},
	}
	svc := newTestService(fs)
	svc.counter = &fakeCounter{
		getFn: func(context.Context, string) (store.ArticleStats, error) {
			return store.ArticleStats{Views: 7, Likes: 3}, nil
		},
	}
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/articles/a-post", nil)
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	html, _ := response["html"].(string)
	if !strings.Contains(html, "Body text.") {
		t.Errorf("html missing rendered paragraph: %s", html)
	}
	outline, _ := response["outline"].([]any)
	if len(outline) != 1 {
		t.Fatalf("expected one outline heading, got %v", response["outline"])
	}
	if response["views"] != float64(7) || response["likes"] != float64(3) {
		t.Errorf("expected counters in payload, got views=%v likes=%v", response["views"], response["likes"])
	}
}

func TestGetUnpublishedArticleIs404(t *testing.T) {
	fs := &fakeStore{
		getArticleBySlugFn: func(_ context.Context, slug string) (store.Article, error) {
			a := publishedArticle(slug)
			a.Published = false
			return a, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/articles/draft", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unpublished article, got %d", rr.Code)
	}

	// The admin token reveals drafts.
	req = httptest.NewRequest(http.MethodGet, "/api/articles/draft", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 for admin read, got %d", rr.Code)
	}
}

func TestRecordViewEndpoint(t *testing.T) {
	var gotKey string
	fs := &fakeStore{
		getArticleBySlugFn: func(_ context.Context, slug string) (store.Article, error) {
			return publishedArticle(slug), nil
		},
	}
	svc := newTestService(fs)
	svc.counter = &fakeCounter{
		recordViewFn: func(_ context.Context, articleID, clientKey string) (int64, error) {
			gotKey = clientKey
			return 8, nil
		},
	}
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodPost, "/api/articles/a-post/view", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["views"] != float64(8) {
		t.Errorf("expected views=8, got %v", response["views"])
	}
	if gotKey == "" {
		t.Error("expected a derived client key")
	}
}

func TestLikeAndUnlikeEndpoints(t *testing.T) {
	fs := &fakeStore{
		getArticleBySlugFn: func(_ context.Context, slug string) (store.Article, error) {
			return publishedArticle(slug), nil
		},
	}
	svc := newTestService(fs)
	svc.counter = &fakeCounter{
		addLikeFn:    func(context.Context, string) (int64, error) { return 4, nil },
		removeLikeFn: func(context.Context, string) (int64, error) { return 3, nil },
	}
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodPost, "/api/articles/a-post/like", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"likes":4`) {
		t.Errorf("like: got %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/articles/a-post/like", nil)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"likes":3`) {
		t.Errorf("unlike: got %d %s", rr.Code, rr.Body.String())
	}
}

func TestCommentsEndpoint(t *testing.T) {
	fs := &fakeStore{
		getArticleBySlugFn: func(_ context.Context, slug string) (store.Article, error) {
			return publishedArticle(slug), nil
		},
		listCommentsFn: func(context.Context, string) ([]store.Comment, error) {
			return []store.Comment{{ID: "cmt_1", Author: "alice", Body: "nice"}}, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/articles/a-post/comments", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "alice") {
		t.Errorf("list comments: got %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/articles/a-post/comments",
		strings.NewReader(`{"author":"bob","body":"great read"}`))
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Errorf("add comment: expected 201, got %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/articles/a-post/comments",
		strings.NewReader(`{"author":"","body":""}`))
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank comment: expected 422, got %d", rr.Code)
	}
}

func TestArticleHistoryEndpoint(t *testing.T) {
	fs := &fakeStore{
		getArticleBySlugFn: func(_ context.Context, slug string) (store.Article, error) {
			return publishedArticle(slug), nil
		},
	}
	svc := newTestService(fs)
	svc.revisions = &fakeRevisions{
		historyFn: func(articleID string, limit int) ([]revision.CommitInfo, error) {
			return []revision.CommitInfo{
				{Hash: "def5678", Message: "Update a-post", Author: "admin", CreatedAt: time.Now()},
				{Hash: "abc1234", Message: "Create article", Author: "admin", CreatedAt: time.Now()},
			}, nil
		},
		snapshotFn: func(articleID, hash string) (revision.Snapshot, error) {
			return revision.Snapshot{Title: "Old Title", Content: json.RawMessage(`{"blocks":[]}`)}, nil
		},
	}
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/articles/a-post/history", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	history, _ := response["history"].([]any)
	if len(history) != 2 {
		t.Errorf("expected two history entries, got %v", response["history"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/articles/a-post/history/abc1234", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Old Title") {
		t.Errorf("revision read: got %d %s", rr.Code, rr.Body.String())
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	fs := &fakeStore{
		getArticleBySlugFn: func(_ context.Context, slug string) (store.Article, error) {
			return publishedArticle(slug), nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodPost, "/api/articles/a-post/export",
		strings.NewReader(`{"format":"epub"}`))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown format, got %d", rr.Code)
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=go&limit=abc", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for bad limit, got %d", rr.Code)
	}

	// No search backend configured.
	req = httptest.NewRequest(http.MethodGet, "/api/search?q=go", nil)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without search backend, got %d", rr.Code)
	}
}
