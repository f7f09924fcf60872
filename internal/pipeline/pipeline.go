package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/schooldash/internal/chart"
	"github.com/ppiankov/schooldash/internal/locale"
	"github.com/ppiankov/schooldash/internal/model"
	"github.com/ppiankov/schooldash/internal/narrate"
	"github.com/ppiankov/schooldash/internal/normalize"
	"github.com/ppiankov/schooldash/internal/view"
)

// ErrNotLoaded is returned when a view is requested before any dataset loaded
var ErrNotLoaded = errors.New("dataset not loaded")

// Options configures a Pipeline
type Options struct {
	URL        string
	Fetcher    *Fetcher
	Renderer   chart.Renderer // nil renders with go-chart, labelled through the current dictionary
	Format     chart.Format
	Width      int
	Height     int
	Dictionary *locale.Dictionary
	Progress   Progress
	Logger     *zap.Logger
}

// Pipeline is one dashboard session: it owns the loaded dataset, the active
// dictionary and the mounted view.
type Pipeline struct {
	id       string
	url      string
	fetcher  *Fetcher
	selector *view.Selector
	progress Progress
	logger   *zap.Logger

	mu       sync.RWMutex
	dataset  *model.Dataset
	faults   []normalize.Fault
	meta     model.FetchMeta
	loadedAt time.Time
	dict     *locale.Dictionary
}

// Result is the outcome of selecting a view
type Result struct {
	View    *view.View
	Summary string
}

// New creates a session
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dict := opts.Dictionary
	if dict == nil {
		dict = locale.MustLoad(locale.Default)
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(nil, "", 0, nil, nil)
	}

	p := &Pipeline{
		id:      uuid.NewString(),
		url:     opts.URL,
		fetcher: fetcher,
		dict:    dict,
	}
	p.logger = logger.With(zap.String("session", p.id))

	p.progress = opts.Progress
	if p.progress == nil {
		p.progress = NewLogProgress(p.logger)
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = chart.NewGoChartRenderer(opts.Format, opts.Width, opts.Height, p)
	}
	p.selector = view.NewSelector(renderer, chart.NewSurface(), p.logger)

	return p
}

// ID returns the session identifier
func (p *Pipeline) ID() string {
	return p.id
}

// Load fetches and normalizes the dataset, replacing the current one as a whole.
// On failure the previous dataset is kept.
func (p *Pipeline) Load(ctx context.Context) error {
	p.progress.Show()
	defer p.progress.Hide()

	start := time.Now()
	result, err := p.fetcher.Fetch(ctx, p.url)
	if err != nil {
		p.logger.Error("Dataset load failed", zap.String("url", p.url), zap.Error(err))
		return fmt.Errorf("load dataset: %w", err)
	}

	ds, faults := normalize.Dataset(result.Envelope)

	p.mu.Lock()
	p.dataset = ds
	p.faults = faults
	p.meta = result.Meta
	p.loadedAt = time.Now()
	p.mu.Unlock()

	for _, f := range faults {
		p.logger.Debug("Unparseable value",
			zap.Int("index", f.Index),
			zap.String("school", f.School),
			zap.String("field", string(f.Field)),
			zap.String("raw", f.Raw))
	}
	p.logger.Info("Dataset loaded",
		zap.Int("records", ds.Len()),
		zap.Int("faults", len(faults)),
		zap.Bool("from_cache", result.Meta.FromCache),
		zap.Duration("elapsed", time.Since(start)))

	return nil
}

// Dataset returns the loaded dataset, or nil before the first successful load
func (p *Pipeline) Dataset() *model.Dataset {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dataset
}

// Faults returns the normalization faults of the loaded dataset
func (p *Pipeline) Faults() []normalize.Fault {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.faults
}

// Meta returns the HTTP metadata of the last successful load
func (p *Pipeline) Meta() model.FetchMeta {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meta
}

// LoadedAt returns when the dataset was last replaced
func (p *Pipeline) LoadedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loadedAt
}

// Dictionary returns the active dictionary
func (p *Pipeline) Dictionary() *locale.Dictionary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dict
}

// SetDictionary switches the display language. Views selected afterwards use it.
func (p *Pipeline) SetDictionary(d *locale.Dictionary) {
	if d == nil {
		return
	}
	p.mu.Lock()
	p.dict = d
	p.mu.Unlock()
	p.logger.Info("Locale changed", zap.String("locale", string(d.Tag)))
}

// Select mounts the view for n and narrates it. Any integer is accepted.
func (p *Pipeline) Select(ctx context.Context, n int) (*Result, error) {
	ds := p.Dataset()
	if ds == nil {
		return nil, ErrNotLoaded
	}

	v, err := p.selector.Select(ctx, ds, n)
	if err != nil {
		return nil, err
	}

	summary, err := narrate.Narrate(int(v.Selection), ds, p.Dictionary())
	if err != nil {
		p.logger.Warn("Summary unavailable", zap.Int("selection", int(v.Selection)), zap.Error(err))
		summary = model.Placeholder
	}

	return &Result{View: v, Summary: summary}, nil
}

// Summary narrates selection n without changing the mounted view
func (p *Pipeline) Summary(n int) (string, error) {
	ds := p.Dataset()
	if ds == nil {
		return "", ErrNotLoaded
	}
	return narrate.Narrate(n, ds, p.Dictionary())
}

// Active returns the selection currently mounted
func (p *Pipeline) Active() view.Selection {
	return p.selector.Active()
}

// Close releases the mounted chart
func (p *Pipeline) Close() {
	p.selector.Close()
}

// Label implements chart.Labeler through the active dictionary
func (p *Pipeline) Label(f model.Field) string {
	return p.Dictionary().Label(f)
}

// Value implements chart.Labeler through the active dictionary
func (p *Pipeline) Value(v string) string {
	return p.Dictionary().Value(v)
}

// Title implements chart.Labeler through the active dictionary
func (p *Pipeline) Title(key string) string {
	return p.Dictionary().Title(key)
}
