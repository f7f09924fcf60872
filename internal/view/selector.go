// Package view switches the dashboard between its chart views.
package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/schooldash/internal/chart"
	"github.com/ppiankov/schooldash/internal/model"
)

// ErrNoDataset is returned when a transition is requested before any data loaded
var ErrNoDataset = errors.New("no dataset loaded")

// View is the outcome of a transition.
// Image holds the chart as rendered, so it stays readable after a later
// transition disposes Chart.
type View struct {
	Selection   Selection
	Recipe      string
	Chart       chart.Chart
	Image       []byte
	ContentType string
}

// Selector owns the mounted chart and serializes transitions between views
type Selector struct {
	renderer chart.Renderer
	surface  *chart.Surface
	logger   *zap.Logger

	// sem admits one transition at a time; later requests queue on it
	sem    chan struct{}
	active Selection
}

// NewSelector creates a selector that mounts charts onto surface
func NewSelector(renderer chart.Renderer, surface *chart.Surface, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if surface == nil {
		surface = chart.NewSurface()
	}
	return &Selector{
		renderer: renderer,
		surface:  surface,
		logger:   logger,
		sem:      make(chan struct{}, 1),
	}
}

// Select transitions to the view for n. Any integer is accepted.
//
// The replacement chart is built before the current one is released, so a
// failed transition leaves the previous view mounted. A request whose context
// ends while waiting for an earlier transition is dropped.
func (s *Selector) Select(ctx context.Context, ds *model.Dataset, n int) (*View, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	if ds == nil {
		return nil, ErrNoDataset
	}

	sel := ParseSelection(n)
	recipe := RecipeFor(sel)

	intent, err := build(recipe, ds)
	if err != nil {
		s.logger.Error("Aggregation failed", zap.String("view", recipe.Name), zap.Error(err))
		return nil, err
	}

	next, err := s.renderer.Render(ctx, intent)
	if err != nil {
		s.logger.Error("Chart construction failed", zap.String("view", recipe.Name), zap.Error(err))
		return nil, fmt.Errorf("view %s: %w", recipe.Name, err)
	}

	var image bytes.Buffer
	if _, err := next.WriteTo(&image); err != nil {
		chart.Dispose(next)
		s.logger.Error("Chart output failed", zap.String("view", recipe.Name), zap.Error(err))
		return nil, fmt.Errorf("view %s: %w", recipe.Name, err)
	}

	prev := s.surface.Replace(next)
	chart.Dispose(prev)
	s.active = sel

	s.logger.Debug("View mounted",
		zap.Int("selection", int(sel)),
		zap.String("view", recipe.Name),
		zap.Int("records", ds.Len()))

	return &View{
		Selection:   sel,
		Recipe:      recipe.Name,
		Chart:       next,
		Image:       image.Bytes(),
		ContentType: next.ContentType(),
	}, nil
}

// Active returns the selection of the mounted view, or 0 before the first transition
func (s *Selector) Active() Selection {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	return s.active
}

// Mounted returns the chart currently shown
func (s *Selector) Mounted() chart.Chart {
	return s.surface.Mounted()
}

// Close disposes the mounted chart
func (s *Selector) Close() {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	chart.Dispose(s.surface.Replace(nil))
	s.active = 0
}

// build runs a recipe, turning a panic in aggregation into an error
func build(recipe Recipe, ds *model.Dataset) (intent chart.Intent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("view %s: aggregation panicked: %v", recipe.Name, r)
		}
	}()
	return recipe.Build(ds), nil
}
