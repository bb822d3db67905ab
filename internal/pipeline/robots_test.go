package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newRobotsServer(t *testing.T, robots string, robotsStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			w.WriteHeader(robotsStatus)
			_, _ = fmt.Fprint(w, robots)
			return
		}
		_, _ = fmt.Fprint(w, "<html><head><title>Page</title></head><body>本文</body></html>")
	}))
	t.Cleanup(server.Close)
	return server, &robotsHits
}

func TestRobotsChecker_Allowed(t *testing.T) {
	robots := "User-agent: docquiz\nDisallow: /private/\n\nUser-agent: *\nDisallow: /\n"
	server, hits := newRobotsServer(t, robots, http.StatusOK)

	checker := NewRobotsChecker(server.Client(), "docquiz/0.1 (+https://example.com)")
	ctx := context.Background()

	if !checker.Allowed(ctx, server.URL+"/news/1") {
		t.Error("Expected /news/1 to be allowed for docquiz")
	}
	if checker.Allowed(ctx, server.URL+"/private/memo") {
		t.Error("Expected /private/memo to be disallowed")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", got)
	}
}

func TestRobotsChecker_MissingRobotsAllowsEverything(t *testing.T) {
	server, _ := newRobotsServer(t, "", http.StatusNotFound)

	checker := NewRobotsChecker(server.Client(), "docquiz")
	if !checker.Allowed(context.Background(), server.URL+"/anything") {
		t.Error("Expected a missing robots.txt to allow fetching")
	}
}

func TestURLSource_RespectsRobots(t *testing.T) {
	server, _ := newRobotsServer(t, "User-agent: *\nDisallow: /\n", http.StatusOK)

	fetcher := newTestFetcher()
	src := &URLSource{
		fetcher:   fetcher,
		robots:    NewRobotsChecker(fetcher.httpClient, "test-agent"),
		maxLength: 8000,
	}

	_, err := src.Resolve(context.Background(), server.URL+"/page", "news")
	if !errors.Is(err, ErrInput) {
		t.Fatalf("Expected input error for a disallowed page, got %v", err)
	}
}

func TestProductToken(t *testing.T) {
	tests := map[string]string{
		"docquiz/0.1 (+https://github.com/ppiankov/docquiz)": "docquiz",
		"test-agent": "test-agent",
		"":           "",
	}
	for ua, want := range tests {
		if got := productToken(ua); got != want {
			t.Errorf("productToken(%q) = %q, want %q", ua, got, want)
		}
	}
}
