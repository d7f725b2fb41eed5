package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/api/internal/store"
)

func TestListTopicsEndpoint(t *testing.T) {
	fs := &fakeStore{
		listTopicsFn: func(_ context.Context, includeUnpublished bool) ([]store.Topic, error) {
			topics := []store.Topic{{Slug: "go", Title: "Go", Published: true}}
			if includeUnpublished {
				topics = append(topics, store.Topic{Slug: "drafts", Title: "Drafts"})
			}
			return topics, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	topics, _ := response["topics"].([]any)
	if len(topics) != 1 {
		t.Errorf("public list should hide unpublished topics, got %v", response["topics"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	topics, _ = response["topics"].([]any)
	if len(topics) != 2 {
		t.Errorf("admin list should include unpublished topics, got %v", response["topics"])
	}
}

func TestGetTopicWithSubtopics(t *testing.T) {
	fs := &fakeStore{
		getTopicBySlugFn: func(_ context.Context, slug string) (store.Topic, error) {
			return store.Topic{ID: "top_1", Slug: slug, Title: "Go", Published: true}, nil
		},
		listSubtopicsFn: func(_ context.Context, topicID string, _ bool) ([]store.Subtopic, error) {
			return []store.Subtopic{{ID: "sub_1", TopicID: topicID, Slug: "concurrency", Title: "Concurrency", Published: true}}, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/topics/go", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	subtopics, _ := response["subtopics"].([]any)
	if len(subtopics) != 1 {
		t.Errorf("expected one subtopic, got %v", response["subtopics"])
	}
}

func TestCreateTopicSlugConflict(t *testing.T) {
	fs := &fakeStore{
		createTopicFn: func(_ context.Context, topic store.Topic) (store.Topic, error) {
			return store.Topic{}, store.ErrSlugTaken
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodPost, "/api/topics", strings.NewReader(`{"title":"Go"}`))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409 for slug conflict, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "SLUG_TAKEN") {
		t.Errorf("expected SLUG_TAKEN code, got %s", rr.Body.String())
	}
}

func TestCreateTopicValidation(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodPost, "/api/topics", strings.NewReader(`{"slug":"Bad Slug","title":"Go"}`))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for invalid slug, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/topics", strings.NewReader(`{"title":""}`))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for missing title, got %d", rr.Code)
	}
}

func TestUnknownTopicIs404(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/topics/missing", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "NOT_FOUND") {
		t.Errorf("expected NOT_FOUND code, got %s", rr.Body.String())
	}
}

func TestSubtopicLifecycle(t *testing.T) {
	fs := &fakeStore{
		getTopicBySlugFn: func(_ context.Context, slug string) (store.Topic, error) {
			return store.Topic{ID: "top_1", Slug: slug, Title: "Go", Published: true}, nil
		},
		listSubtopicsFn: func(_ context.Context, topicID string, _ bool) ([]store.Subtopic, error) {
			return []store.Subtopic{{ID: "sub_1", TopicID: topicID, Slug: "generics", Title: "Generics", Published: true}}, nil
		},
	}
	svc := newTestService(fs)
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodPost, "/api/topics/go/subtopics",
		strings.NewReader(`{"title":"Generics Deep Dive"}`))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Errorf("create subtopic: expected 201, got %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/api/topics/go/subtopics/generics",
		strings.NewReader(`{"title":"Generics, Revisited"}`))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("update subtopic: expected 200, got %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/topics/go/subtopics/generics", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("delete subtopic: expected 200, got %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/api/topics/go/subtopics/missing",
		strings.NewReader(`{"title":"Nope"}`))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown subtopic: expected 404, got %d", rr.Code)
	}
}
