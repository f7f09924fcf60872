package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: schooldash\nDisallow: /private\nDisallow: /*?draft\nCrawl-delay: 2\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "schooldash/0.2 (+https://example.com)", 5*time.Second)
	ctx := context.Background()

	v, err := checker.Check(ctx, server.URL+"/raw")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !v.Allowed {
		t.Errorf("expected /raw to be allowed")
	}
	if v.CrawlDelay != 2*time.Second {
		t.Errorf("expected 2s crawl delay, got %v", v.CrawlDelay)
	}

	if v, _ := checker.Check(ctx, server.URL+"/private/data"); v.Allowed {
		t.Errorf("expected /private to be disallowed")
	}
	if v, _ := checker.Check(ctx, server.URL+"/raw?draft=1"); v.Allowed {
		t.Errorf("expected query to take part in matching")
	}
}

func TestRobotsChecker_StatusPolicies(t *testing.T) {
	tests := []struct {
		status  int
		allowed bool
	}{
		{http.StatusNotFound, true},
		{http.StatusForbidden, true},
		{http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			checker := NewRobotsChecker(nil, "schooldash", 5*time.Second)
			v, err := checker.Check(context.Background(), server.URL+"/anything")
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if v.Allowed != tt.allowed {
				t.Errorf("status %d: expected allowed=%v", tt.status, tt.allowed)
			}
		})
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	v, err := NewRobotsChecker(nil, "schooldash", time.Second).Check(context.Background(), url+"/data.json")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !v.Allowed {
		t.Errorf("expected fetch to be allowed when robots.txt is unreachable")
	}
}

func TestRobotsChecker_RefetchesAfterTTL(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	}))
	defer server.Close()

	now := time.Now()
	checker := NewRobotsChecker(server.Client(), "schooldash", 5*time.Second)
	checker.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, _ = checker.Check(context.Background(), server.URL+"/data.json")
	}
	if hits.Load() != 1 {
		t.Errorf("expected one robots.txt fetch within the TTL, got %d", hits.Load())
	}

	now = now.Add(RobotsTTL + time.Second)
	_, _ = checker.Check(context.Background(), server.URL+"/data.json")
	if hits.Load() != 2 {
		t.Errorf("expected a refetch after the TTL, got %d fetches", hits.Load())
	}
}

func TestRobotsChecker_RejectsRelativeURL(t *testing.T) {
	if _, err := NewRobotsChecker(nil, "schooldash", time.Second).Check(context.Background(), "/data.json"); err == nil {
		t.Errorf("expected error for URL without host")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("schooldash/0.2 (+https://example.com)"); got != "schooldash" {
		t.Errorf("expected schooldash, got %s", got)
	}
	if got := NormalizeUserAgent(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
