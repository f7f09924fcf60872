package cli

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ppiankov/schooldash/internal/cache"
	"github.com/ppiankov/schooldash/internal/chart"
	"github.com/ppiankov/schooldash/internal/locale"
	"github.com/ppiankov/schooldash/internal/model"
	"github.com/ppiankov/schooldash/internal/offline"
	"github.com/ppiankov/schooldash/internal/pipeline"
	"github.com/ppiankov/schooldash/internal/util"
	"github.com/ppiankov/schooldash/internal/worker"
)

// session bundles everything a command needs to load and present the dataset
type session struct {
	cfg      *model.Config
	pipeline *pipeline.Pipeline
	worker   *offline.Worker // nil when the cache is disabled
	prefs    *locale.Preferences
}

// newWorker builds the offline worker over the configured caches.
// withManifest controls whether the static asset manifest is installed.
func newWorker(cfg *model.Config, network http.RoundTripper, withManifest bool, logger *zap.Logger) (*offline.Worker, error) {
	static := cache.Open(cache.Name("static", cfg.Cache.Version), cfg.Cache.Dir, cfg.Cache.MemoryTTL, cache.NoExpiration)
	dynamic := cache.Open(cache.Name("dynamic", cfg.Cache.Version), cfg.Cache.Dir, cfg.Cache.MemoryTTL, cfg.Cache.DiskTTL)

	oc := offline.Config{
		Origin:      cfg.Offline.Origin,
		Concurrency: cfg.Offline.Concurrency,
		MaxBytes:    cfg.HTTP.MaxBodyBytes,
	}
	if withManifest {
		oc.Manifest = cfg.Offline.Manifest
	}
	return offline.New(oc, network, static, dynamic, logger.Named("offline"))
}

// newSession wires the transport, offline worker, fetcher and pipeline.
// The worker is returned uninstalled when withManifest is set; otherwise it is
// active right away since it has no assets to fetch.
func newSession(ctx context.Context, cfg *model.Config, withManifest bool, logger *zap.Logger) (*session, error) {
	prefs, err := locale.OpenPreferences(cfg.Preferences.File)
	if err != nil {
		return nil, err
	}
	dict, err := locale.Load(prefs.Locale())
	if err != nil {
		return nil, err
	}

	format, err := chart.ParseFormat(cfg.Chart.Format)
	if err != nil {
		return nil, err
	}

	var transport http.RoundTripper = pipeline.NewTransport(cfg.HTTP)
	var w *offline.Worker
	if cfg.Cache.Enabled {
		w, err = newWorker(cfg, transport, withManifest, logger)
		if err != nil {
			return nil, fmt.Errorf("create offline worker: %w", err)
		}
		if !withManifest {
			if err := w.Install(ctx); err != nil {
				return nil, err
			}
		}
		transport = w
	}

	client := pipeline.NewHTTPClient(cfg.HTTP.Timeout, transport)

	var robots *util.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = util.NewRobotsChecker(client, cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}
	var limiter *worker.Limiter
	if cfg.HTTP.RatePerSecond > 0 {
		limiter = worker.NewLimiter(cfg.HTTP.RatePerSecond, cfg.HTTP.RateBurst)
	}

	p := pipeline.New(pipeline.Options{
		URL:        cfg.Dataset.URL,
		Fetcher:    pipeline.NewFetcher(client, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, limiter, robots),
		Format:     format,
		Width:      cfg.Chart.Width,
		Height:     cfg.Chart.Height,
		Dictionary: dict,
		Logger:     logger,
	})

	return &session{cfg: cfg, pipeline: p, worker: w, prefs: prefs}, nil
}
