package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/schooldash/internal/model"
	"github.com/ppiankov/schooldash/internal/offline"
	"github.com/ppiankov/schooldash/internal/util"
	"github.com/ppiankov/schooldash/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching the dataset
var ErrDisallowed = errors.New("disallowed by robots.txt")

// ErrTooLarge is returned when the dataset exceeds the configured body limit
var ErrTooLarge = errors.New("response body too large")

// Fetcher downloads the dataset envelope
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
}

// NewHTTPClient builds the client used for dataset requests.
// transport is usually the offline worker.
func NewHTTPClient(timeout time.Duration, transport http.RoundTripper) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}
}

// NewTransport returns the network transport configured with the proxy settings
func NewTransport(cfg model.HTTPConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	return t
}

// NewFetcher creates a fetcher. limiter and robots are optional.
func NewFetcher(client *http.Client, userAgent string, maxBytes int64, limiter *worker.Limiter, robots *util.RobotsChecker) *Fetcher {
	if client == nil {
		client = NewHTTPClient(30*time.Second, nil)
	}
	return &Fetcher{
		httpClient: client,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		limiter:    limiter,
		robots:     robots,
	}
}

// FetchResult contains the decoded envelope and metadata
type FetchResult struct {
	Envelope *model.Envelope
	Meta     model.FetchMeta
	FinalURL string
}

// Fetch performs a single GET of rawURL and decodes the envelope
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	var crawlDelay time.Duration
	if f.robots != nil {
		v, err := f.robots.Check(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("check robots: %w", err)
		}
		if !v.Allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
		crawlDelay = v.CrawlDelay
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL, crawlDelay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
		FromCache:    resp.Header.Get(offline.CacheHeader) != "",
		Headers:      make(map[string]string),
	}

	// Store selected headers
	for _, key := range []string{"Content-Length", "Server", "Cache-Control", offline.CacheHeader} {
		if val := resp.Header.Get(key); val != "" {
			meta.Headers[key] = val
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, f.maxBytes)
	}

	env, err := DecodeEnvelope(data)
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Envelope: env,
		Meta:     meta,
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// DecodeEnvelope parses the dataset document. Numbers are kept as json.Number
// so counts survive without float rounding.
func DecodeEnvelope(data []byte) (*model.Envelope, error) {
	var env model.Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &env, nil
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, e.status)
}
