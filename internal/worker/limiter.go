package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests with one token bucket per host
type Limiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	rate  rate.Limit
	burst int
}

// NewLimiter creates a limiter allowing requestsPerSecond per host.
// A non-positive burst defaults to 5.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		hosts: make(map[string]*rate.Limiter),
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
	}
}

// Wait blocks until a request to rawURL may start. A positive crawlDelay
// slows the host to at most one request per crawlDelay from then on.
func (l *Limiter) Wait(ctx context.Context, rawURL string, crawlDelay time.Duration) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}

	lim := l.host(host)
	if crawlDelay > 0 {
		if every := rate.Every(crawlDelay); every < lim.Limit() {
			lim.SetLimit(every)
			lim.SetBurst(1)
		}
	}
	return lim.Wait(ctx)
}

func (l *Limiter) host(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.hosts[host]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.hosts[host] = lim
	}
	return lim
}

// hostOf extracts the host (with port) from a URL
func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no host in URL %q", rawURL)
	}
	return parsed.Host, nil
}
