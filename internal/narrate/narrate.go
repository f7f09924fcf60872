// Package narrate derives the statistic sentence shown next to each view.
package narrate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/ppiankov/schooldash/internal/aggregate"
	"github.com/ppiankov/schooldash/internal/locale"
	"github.com/ppiankov/schooldash/internal/model"
	"github.com/ppiankov/schooldash/internal/view"
)

// Figures are the dataset-wide numbers the summary templates can reference.
// Ratios are pre-formatted so a zero denominator renders as the placeholder.
type Figures struct {
	Schools          int
	Students         int
	Staff            int
	AveragePerStaff  string
	Category         string // Category with the most students, translated
	CategoryStudents int
	CategoryPercent  string
	NoRestrooms      int
	EnglishMedium    int
	NoPlayground     int
}

// Compute derives the figures of a dataset. Values are translated through dict.
func Compute(ds *model.Dataset, dict *locale.Dictionary) Figures {
	var records []model.Record
	if ds != nil {
		records = ds.Records
	}

	students, staff := aggregate.Totals(records)
	f := Figures{
		Schools:       len(records),
		Students:      students,
		Staff:         staff,
		NoRestrooms:   aggregate.Count(records, aggregate.NoRestrooms),
		EnglishMedium: aggregate.Count(records, aggregate.EnglishMedium),
		NoPlayground:  aggregate.Count(records, aggregate.NoPlayground),
	}

	f.AveragePerStaff = ratio(aggregate.AveragePerStaff(students, staff))

	f.Category = model.Placeholder
	f.CategoryPercent = model.Placeholder
	if top, ok := aggregate.Largest(aggregate.SummarizeAll(aggregate.GroupBy(records, model.FieldCategory))); ok {
		f.Category = dict.Value(top.Key)
		f.CategoryStudents = top.StudentSum
		f.CategoryPercent = ratio(aggregate.PercentOf(top.StudentSum, students))
	}

	return f
}

// Narrate renders the summary for selection n in the dictionary's language.
// It is a pure function of its inputs.
func Narrate(n int, ds *model.Dataset, dict *locale.Dictionary) (string, error) {
	if dict == nil {
		return "", errors.New("no dictionary")
	}
	sel := view.ParseSelection(n)

	text, ok := dict.Summary(int(sel))
	if !ok {
		return "", fmt.Errorf("no summary template for view %d in locale %s", sel, dict.Tag)
	}

	tmpl, err := template.New("summary").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse summary template: %w", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, Compute(ds, dict)); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return b.String(), nil
}

func ratio(v int, err error) string {
	if err != nil {
		return model.Placeholder
	}
	return strconv.Itoa(v)
}
