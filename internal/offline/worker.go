// Package offline implements the offline cache worker that sits between the
// application and the network.
//
// Same-origin requests are answered from a static cache populated at install
// time. Cross-origin requests go to the network first, and fall back to the
// last successful response when the network is unreachable.
package offline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/schooldash/internal/cache"
	"github.com/ppiankov/schooldash/internal/worker"
)

// CacheHeader is set on responses served from a cache, with the cache name as value
const CacheHeader = "X-Schooldash-Cache"

// ErrNotCached is returned when the network fails and no cached copy exists
var ErrNotCached = errors.New("not cached")

// ErrTooLarge is returned for response bodies over the configured limit
var ErrTooLarge = errors.New("response too large to cache")

// State is the lifecycle stage of the worker
type State int32

const (
	StateInstalling State = iota
	StateActive
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	default:
		return "installing"
	}
}

// Config describes the worker's origin and static manifest
type Config struct {
	Origin      string   // Base URL of the page; requests to it are same-origin
	Manifest    []string // Asset paths resolved against Origin
	Concurrency int
	MaxBytes    int64 // Largest body kept in a cache; 0 means no limit
}

// Worker intercepts every request made through it
type Worker struct {
	origin      *url.URL
	manifest    []string
	concurrency int
	maxBytes    int64

	static  cache.Cache
	dynamic cache.Cache

	network http.RoundTripper
	logger  *zap.Logger
	state   atomic.Int32
}

// New creates a worker. A nil network uses http.DefaultTransport.
func New(cfg Config, network http.RoundTripper, static, dynamic cache.Cache, logger *zap.Logger) (*Worker, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("origin must be an absolute URL: %q", cfg.Origin)
	}

	manifest := make([]string, 0, len(cfg.Manifest))
	for _, p := range cfg.Manifest {
		ref, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("parse manifest entry %q: %w", p, err)
		}
		manifest = append(manifest, origin.ResolveReference(ref).String())
	}

	if network == nil {
		network = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		origin:      origin,
		manifest:    manifest,
		concurrency: cfg.Concurrency,
		maxBytes:    cfg.MaxBytes,
		static:      static,
		dynamic:     dynamic,
		network:     network,
		logger:      logger,
	}, nil
}

// Manifest returns the absolute URLs of the static assets
func (w *Worker) Manifest() []string {
	out := make([]string, len(w.manifest))
	copy(out, w.manifest)
	return out
}

// State returns the current lifecycle stage
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Install fetches every manifest entry into the static cache and then activates the worker.
// If any entry fails the worker stays in the installing state.
func (w *Worker) Install(ctx context.Context) error {
	w.logger.Info("Installing offline worker",
		zap.String("cache", w.static.Name()),
		zap.Int("assets", len(w.manifest)))

	outcomes := worker.FetchAll(ctx, w, w.manifest, w.concurrency)
	if err := worker.FirstError(outcomes); err != nil {
		w.logger.Error("Offline worker install failed", zap.Error(err))
		return fmt.Errorf("install: %w", err)
	}

	w.state.Store(int32(StateActive))
	w.logger.Info("Offline worker active", zap.String("origin", w.origin.String()))
	return nil
}

// FetchURL downloads one manifest asset into the static cache
func (w *Worker) FetchURL(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := w.network.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	return w.store(w.static, req, resp, cache.NoExpiration)
}

// RoundTrip implements http.RoundTripper
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if w.State() != StateActive || req.Method != http.MethodGet {
		return w.network.RoundTrip(req)
	}

	if w.SameOrigin(req.URL) {
		return w.cacheFirst(req)
	}
	return w.networkFirst(req)
}

// SameOrigin reports whether u shares scheme, host and port with the worker's origin
func (w *Worker) SameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, w.origin.Scheme) &&
		strings.EqualFold(u.Hostname(), w.origin.Hostname()) &&
		port(u) == port(w.origin)
}

// Clear empties both caches
func (w *Worker) Clear() error {
	return errors.Join(w.static.Clear(), w.dynamic.Clear())
}

// CacheStatus describes the contents of one cache
type CacheStatus struct {
	Name    string
	Entries []cache.Entry
}

// Status lists what each cache holds, static first
func (w *Worker) Status() ([]CacheStatus, error) {
	var out []CacheStatus
	for _, c := range []cache.Cache{w.static, w.dynamic} {
		entries, err := c.Entries()
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", c.Name(), err)
		}
		out = append(out, CacheStatus{Name: c.Name(), Entries: entries})
	}
	return out, nil
}

// cacheFirst serves from the static cache, going to the network on a miss
// without populating the cache.
func (w *Worker) cacheFirst(req *http.Request) (*http.Response, error) {
	if resp, ok := w.lookup(w.static, req); ok {
		return resp, nil
	}
	return w.network.RoundTrip(req)
}

// networkFirst asks the network, keeping a copy of each response and
// falling back to the latest copy when the network fails.
func (w *Worker) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := w.network.RoundTrip(req)
	if err == nil {
		if serr := w.store(w.dynamic, req, resp, 0); serr != nil {
			w.logger.Warn("Failed to cache response", zap.String("url", req.URL.String()), zap.Error(serr))
		}
		return resp, nil
	}

	if cached, ok := w.lookup(w.dynamic, req); ok {
		w.logger.Warn("Network unavailable, serving cached response",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return cached, nil
	}

	w.logger.Error("Network unavailable and no cached response",
		zap.String("url", req.URL.String()),
		zap.Error(err))
	return nil, fmt.Errorf("%w: %s: %w", ErrNotCached, req.URL, err)
}

// store serializes resp into c. resp.Body is replaced so the caller can still read it.
// Bodies over the size limit are not stored.
func (w *Worker) store(c cache.Cache, req *http.Request, resp *http.Response, ttl time.Duration) error {
	body, err := w.readBody(resp)
	if err != nil {
		return err
	}

	clone := *resp
	clone.Body = io.NopCloser(bytes.NewReader(body))
	clone.ContentLength = int64(len(body))
	clone.TransferEncoding = nil
	clone.Header = resp.Header.Clone()
	clone.Header.Del("Transfer-Encoding")

	dump, err := httputil.DumpResponse(&clone, true)
	if err != nil {
		return fmt.Errorf("serialize response: %w", err)
	}

	return c.Put(req.URL.String(), dump, ttl)
}

// readBody buffers resp.Body up to the size limit.
// Over the limit, the caller gets the buffered prefix followed by the unread
// rest of the original stream.
func (w *Worker) readBody(resp *http.Response) ([]byte, error) {
	src := resp.Body
	r := io.Reader(src)
	if w.maxBytes > 0 {
		r = io.LimitReader(src, w.maxBytes+1)
	}

	body, err := io.ReadAll(r)
	if err == nil && w.maxBytes > 0 && int64(len(body)) > w.maxBytes {
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(body), src), src}
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, w.maxBytes)
	}

	_ = src.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// lookup returns the cached response for req, if any
func (w *Worker) lookup(c cache.Cache, req *http.Request) (*http.Response, bool) {
	rawURL := req.URL.String()
	e, ok := c.Get(rawURL)
	if !ok {
		return nil, false
	}

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(e.Data)), req)
	if err != nil {
		w.logger.Warn("Discarding unreadable cache entry", zap.String("url", rawURL), zap.Error(err))
		_ = c.Delete(rawURL)
		return nil, false
	}
	resp.Header.Set(CacheHeader, c.Name())
	return resp, true
}

func port(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}
