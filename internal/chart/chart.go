// Package chart turns abstract chart intents into rendered charts and owns the
// single mount point the dashboard shows.
package chart

import (
	"context"
	"io"
	"sync"

	"github.com/ppiankov/schooldash/internal/model"
)

// Shape is the kind of chart requested
type Shape string

const (
	ShapeScatter Shape = "scatter"
	ShapeBar     Shape = "bar"
)

// Point is one scatter mark
type Point struct {
	X      string        `json:"x"`     // Categorical x value (district)
	Y      int           `json:"y"`     // Measure value
	Color  string        `json:"color"` // Value of the color field
	Record *model.Record `json:"record,omitempty"`
}

// Bar is one bar of a bar chart
type Bar struct {
	Summary model.GroupSummary `json:"summary"`
	Value   int                `json:"value"`
}

// Intent describes a chart without committing to a rendering library
type Intent struct {
	Shape   Shape         `json:"shape"`
	Title   string        `json:"title"` // Title key, translated at render time
	X       model.Field   `json:"x"`
	Y       model.Field   `json:"y"`
	Color   model.Field   `json:"color"`
	Tooltip []model.Field `json:"tooltip"`
	Points  []Point       `json:"points,omitempty"`
	Bars    []Bar         `json:"bars,omitempty"`
}

// Chart is a rendered chart resource
type Chart interface {
	Intent() Intent
	ContentType() string
	WriteTo(w io.Writer) (int64, error)
	// Dispose releases the chart; it is safe to call more than once
	Dispose()
}

// Renderer builds charts from intents
type Renderer interface {
	Render(ctx context.Context, intent Intent) (Chart, error)
}

// Surface is the single chart container of the dashboard
type Surface struct {
	mu      sync.RWMutex
	mounted Chart
}

// NewSurface creates an empty surface
func NewSurface() *Surface {
	return &Surface{}
}

// Mounted returns the chart currently shown, or nil
func (s *Surface) Mounted() Chart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mounted
}

// Replace mounts c and returns the previously mounted chart
func (s *Surface) Replace(c Chart) Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.mounted
	s.mounted = c
	return old
}

// Dispose releases c if non-nil
func Dispose(c Chart) {
	if c != nil {
		c.Dispose()
	}
}
