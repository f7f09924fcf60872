package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsTTL is how long a host's robots.txt is trusted before it is fetched again
const RobotsTTL = time.Hour

// maxRobotsBytes caps the robots.txt body; the rest is ignored
const maxRobotsBytes = 512 << 10

// Verdict is the robots.txt decision for one URL
type Verdict struct {
	Allowed    bool
	CrawlDelay time.Duration
}

type robotsEntry struct {
	data    *robotstxt.RobotsData
	fetched time.Time
}

// RobotsChecker answers robots.txt questions for the dataset host
type RobotsChecker struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	hosts map[string]robotsEntry
	now   func() time.Time
}

// NewRobotsChecker creates a checker.
// A nil client uses a plain client with the given timeout.
func NewRobotsChecker(client *http.Client, userAgent string, timeout time.Duration) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &RobotsChecker{
		client:    client,
		userAgent: NormalizeUserAgent(userAgent),
		hosts:     make(map[string]robotsEntry),
		now:       time.Now,
	}
}

// Check returns whether rawURL may be fetched and the host's crawl delay.
// An unreachable robots.txt allows the fetch and is retried on the next call.
func (r *RobotsChecker) Check(ctx context.Context, rawURL string) (Verdict, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Verdict{}, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return Verdict{}, fmt.Errorf("no host in URL %q", rawURL)
	}

	data, err := r.policy(ctx, parsed)
	if err != nil {
		return Verdict{Allowed: true}, nil
	}

	v := Verdict{Allowed: data.TestAgent(parsed.RequestURI(), r.userAgent)}
	if group := data.FindGroup(r.userAgent); group != nil {
		v.CrawlDelay = group.CrawlDelay
	}
	return v, nil
}

// policy returns the host's parsed robots.txt, fetching it when missing or stale
func (r *RobotsChecker) policy(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Scheme + "://" + u.Host

	r.mu.Lock()
	entry, ok := r.hosts[host]
	r.mu.Unlock()
	if ok && r.now().Sub(entry.fetched) < RobotsTTL {
		return entry.data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/plain")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	// 4xx allows everything, 5xx disallows everything
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.hosts[host] = robotsEntry{data: data, fetched: r.now()}
	r.mu.Unlock()
	return data, nil
}

// NormalizeUserAgent reduces a user agent to its product token for robots.txt matching
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
