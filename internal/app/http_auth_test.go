package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/api/internal/config"
)

func TestWriteEndpointsRequireAdminToken(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, "*")

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/topics"},
		{http.MethodPut, "/api/topics/go"},
		{http.MethodDelete, "/api/topics/go"},
		{http.MethodPost, "/api/articles"},
		{http.MethodPut, "/api/articles/post"},
		{http.MethodDelete, "/api/articles/post"},
		{http.MethodGet, "/api/articles/post/source"},
		{http.MethodGet, "/api/articles/post/history"},
		{http.MethodDelete, "/api/comments/cmt_1"},
		{http.MethodPost, "/api/notes"},
		{http.MethodPost, "/api/projects"},
		{http.MethodPost, "/api/media"},
	}

	for _, rq := range requests {
		t.Run(rq.method+" "+rq.path, func(t *testing.T) {
			req := httptest.NewRequest(rq.method, rq.path, strings.NewReader("{}"))
			rr := httptest.NewRecorder()

			server.Handler().ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401 without token, got %d", rr.Code)
			}
		})
	}
}

func TestWrongAdminTokenRejected(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodPost, "/api/topics", strings.NewReader(`{"title":"Go"}`))
	req.Header.Set("Authorization", "Bearer wrong-token")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rr.Code)
	}
}

func TestWritesDisabledWithoutConfiguredToken(t *testing.T) {
	svc := newTestService(&fakeStore{})
	svc.cfg = config.Config{}
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodPost, "/api/topics", strings.NewReader(`{"title":"Go"}`))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when no admin token configured, got %d", rr.Code)
	}
}

func TestValidTokenAllowsWrite(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, "*")

	req := httptest.NewRequest(http.MethodPost, "/api/topics", strings.NewReader(`{"title":"Go Internals"}`))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestReadEndpointsArePublic(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, "*")

	paths := []string{"/api/topics", "/api/articles", "/api/notes", "/api/projects"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rr := httptest.NewRecorder()

			server.Handler().ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("expected 200 for unauthenticated read, got %d", rr.Code)
			}
		})
	}
}
