package server

import (
	"strconv"

	"github.com/ppiankov/schooldash/internal/chart"
	"github.com/ppiankov/schooldash/internal/model"
)

// Entry is one labelled line of a tooltip
type Entry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PointView is a translated scatter mark
type PointView struct {
	X       string  `json:"x"`
	Y       int     `json:"y"`
	Color   string  `json:"color"`
	Tooltip []Entry `json:"tooltip"`
}

// BarView is a translated bar
type BarView struct {
	Label   string  `json:"label"`
	Value   int     `json:"value"`
	Tooltip []Entry `json:"tooltip"`
}

// IntentView is a chart intent with every display string translated
type IntentView struct {
	Shape  chart.Shape `json:"shape"`
	Title  string      `json:"title"`
	X      string      `json:"x"`
	Y      string      `json:"y"`
	Color  string      `json:"color"`
	Points []PointView `json:"points,omitempty"`
	Bars   []BarView   `json:"bars,omitempty"`
}

func present(in chart.Intent, l chart.Labeler) IntentView {
	out := IntentView{
		Shape: in.Shape,
		Title: l.Title(in.Title),
		X:     l.Label(in.X),
		Y:     l.Label(in.Y),
		Color: l.Label(in.Color),
	}

	for _, p := range in.Points {
		pv := PointView{X: l.Value(p.X), Y: p.Y, Color: l.Value(p.Color)}
		if p.Record != nil {
			for _, f := range in.Tooltip {
				pv.Tooltip = append(pv.Tooltip, Entry{Label: l.Label(f), Value: recordValue(*p.Record, f, l)})
			}
		}
		out.Points = append(out.Points, pv)
	}

	for _, b := range in.Bars {
		bv := BarView{Label: l.Value(b.Summary.Key), Value: b.Value}
		for _, f := range in.Tooltip {
			bv.Tooltip = append(bv.Tooltip, Entry{Label: l.Label(f), Value: summaryValue(b.Summary, f)})
		}
		out.Bars = append(out.Bars, bv)
	}

	return out
}

func recordValue(r model.Record, f model.Field, l chart.Labeler) string {
	if n, ok := r.Count(f); ok {
		return strconv.Itoa(n)
	}
	return l.Value(r.Value(f))
}

func summaryValue(s model.GroupSummary, f model.Field) string {
	switch f {
	case model.FieldSchoolCount:
		return strconv.Itoa(s.Count)
	case model.FieldStudents:
		return strconv.Itoa(s.StudentSum)
	case model.FieldStaff:
		return strconv.Itoa(s.StaffSum)
	default:
		return model.Placeholder
	}
}
