package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ppiankov/schooldash/internal/model"
)

var (
	// ErrNoData is returned for intents without any marks
	ErrNoData = errors.New("chart has no data")
	// ErrDisposed is returned when writing a chart that was already disposed
	ErrDisposed = errors.New("chart disposed")
)

// palette is cycled through for color groups
var palette = []string{
	"4F46E5", "10B981", "F59E0B", "EF4444", "8B5CF6",
	"06B6D4", "EC4899", "84CC16", "F97316", "6366F1",
}

// Labeler translates field keys, values and title keys into display text
type Labeler interface {
	Label(f model.Field) string
	Value(v string) string
	Title(key string) string
}

type identityLabeler struct{}

func (identityLabeler) Label(f model.Field) string { return string(f) }
func (identityLabeler) Value(v string) string      { return v }
func (identityLabeler) Title(key string) string    { return key }

// Format is the output encoding of a rendered chart
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat validates a chart format name
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSVG, FormatPNG:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported chart format: %q", s)
	}
}

// GoChartRenderer renders intents with go-chart
type GoChartRenderer struct {
	format  Format
	width   int
	height  int
	labeler Labeler
}

// NewGoChartRenderer creates a renderer. A nil labeler leaves text untranslated.
func NewGoChartRenderer(format Format, width, height int, labeler Labeler) *GoChartRenderer {
	if labeler == nil {
		labeler = identityLabeler{}
	}
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 512
	}
	return &GoChartRenderer{
		format:  format,
		width:   width,
		height:  height,
		labeler: labeler,
	}
}

// Render draws the intent and returns the encoded chart
func (r *GoChartRenderer) Render(ctx context.Context, intent Intent) (Chart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var err error
	switch intent.Shape {
	case ShapeScatter:
		err = r.renderScatter(intent, &buf)
	case ShapeBar:
		err = r.renderBar(intent, &buf)
	default:
		err = fmt.Errorf("unsupported chart shape: %q", intent.Shape)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", intent.Shape, err)
	}

	return &rendered{
		intent:      intent,
		contentType: r.contentType(),
		data:        buf.Bytes(),
	}, nil
}

func (r *GoChartRenderer) provider() gochart.RendererProvider {
	if r.format == FormatPNG {
		return gochart.PNG
	}
	return gochart.SVG
}

func (r *GoChartRenderer) contentType() string {
	if r.format == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// renderScatter draws one dot per point. An intent without points renders
// the axes and title only.
func (r *GoChartRenderer) renderScatter(intent Intent, w io.Writer) error {
	// Categorical x axis in first-seen order
	xIndex := make(map[string]int)
	var ticks []gochart.Tick
	maxY := 0
	for _, p := range intent.Points {
		if _, ok := xIndex[p.X]; !ok {
			xIndex[p.X] = len(xIndex)
			ticks = append(ticks, gochart.Tick{Value: float64(len(ticks)), Label: r.labeler.Value(p.X)})
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	// One series per color value
	seriesIndex := make(map[string]int)
	var series []gochart.ContinuousSeries
	for _, p := range intent.Points {
		i, ok := seriesIndex[p.Color]
		if !ok {
			i = len(series)
			seriesIndex[p.Color] = i
			series = append(series, gochart.ContinuousSeries{
				Name:  r.labeler.Value(p.Color),
				Style: pointStyle(drawing.ColorFromHex(palette[i%len(palette)])),
			})
		}
		series[i].XValues = append(series[i].XValues, float64(xIndex[p.X]))
		series[i].YValues = append(series[i].YValues, float64(p.Y))
	}

	// go-chart takes the x range from the tick span, so unlabeled edge ticks
	// keep it wide enough for a single category or none.
	categories := float64(len(ticks))
	if categories == 0 {
		categories = 1
	}
	ticks = append([]gochart.Tick{{Value: -0.5}}, ticks...)
	ticks = append(ticks, gochart.Tick{Value: categories - 0.5})

	// A hidden series satisfies go-chart's one-series minimum without drawing
	if len(series) == 0 {
		series = append(series, gochart.ContinuousSeries{
			Style:   gochart.Style{Hidden: true},
			XValues: []float64{0},
			YValues: []float64{0},
		})
	}

	ch := gochart.Chart{
		Title:  r.labeler.Title(intent.Title),
		Width:  r.width,
		Height: r.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16},
		},
		XAxis: gochart.XAxis{
			Name:  r.labeler.Label(intent.X),
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{
			Name:  r.labeler.Label(intent.Y),
			Range: &gochart.ContinuousRange{Min: 0, Max: upper(maxY)},
		},
	}
	for _, s := range series {
		ch.Series = append(ch.Series, s)
	}
	if len(intent.Points) > 0 {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}

	return ch.Render(r.provider(), w)
}

func (r *GoChartRenderer) renderBar(intent Intent, w io.Writer) error {
	if len(intent.Bars) == 0 {
		return ErrNoData
	}

	maxY := 0
	bars := make([]gochart.Value, 0, len(intent.Bars))
	for i, b := range intent.Bars {
		if b.Value > maxY {
			maxY = b.Value
		}
		col := drawing.ColorFromHex(palette[i%len(palette)])
		bars = append(bars, gochart.Value{
			Label: r.labeler.Value(b.Summary.Key),
			Value: float64(b.Value),
			Style: gochart.Style{FillColor: col, StrokeColor: col},
		})
	}

	bc := gochart.BarChart{
		Title:    r.labeler.Title(intent.Title),
		Width:    r.width,
		Height:   r.height,
		BarWidth: barWidth(r.width, len(bars)),
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40},
		},
		YAxis: gochart.YAxis{
			Name:  r.labeler.Label(intent.Y),
			Range: &gochart.ContinuousRange{Min: 0, Max: upper(maxY)},
		},
		Bars: bars,
	}

	return bc.Render(r.provider(), w)
}

// pointStyle renders dots without connecting lines
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: gochart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func upper(maxY int) float64 {
	if maxY <= 0 {
		return 1
	}
	return float64(maxY) * 1.1
}

func barWidth(width, n int) int {
	w := width / (2*n + 1)
	if w < 8 {
		return 8
	}
	if w > 120 {
		return 120
	}
	return w
}

// rendered is an encoded chart held in memory
type rendered struct {
	mu          sync.Mutex
	intent      Intent
	contentType string
	data        []byte
	disposed    bool
}

func (c *rendered) Intent() Intent {
	return c.intent
}

func (c *rendered) ContentType() string {
	return c.contentType
}

func (c *rendered) WriteTo(w io.Writer) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return 0, ErrDisposed
	}
	n, err := w.Write(c.data)
	return int64(n), err
}

func (c *rendered) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.data = nil
}
