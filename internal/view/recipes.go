package view

import (
	"github.com/ppiankov/schooldash/internal/aggregate"
	"github.com/ppiankov/schooldash/internal/chart"
	"github.com/ppiankov/schooldash/internal/model"
)

// Selection identifies the active view and narration
type Selection int

const (
	AllByDistrict Selection = iota + 1
	ByCategory
	WithoutRestrooms
	ByMedium
	PlaygroundByDistrict
)

// Default is the selection used for unmapped input
const Default = AllByDistrict

// ParseSelection maps any integer onto a defined selection
func ParseSelection(n int) Selection {
	s := Selection(n)
	if _, ok := recipes[s]; ok {
		return s
	}
	return Default
}

// Recipe turns a dataset into a chart intent
type Recipe struct {
	Name  string
	Build func(ds *model.Dataset) chart.Intent
}

var scatterTooltip = []model.Field{
	model.FieldSchoolName, model.FieldDistrict, model.FieldCategory, model.FieldEstablished,
	model.FieldMedium, model.FieldSubjects, model.FieldPincode, model.FieldStudents,
	model.FieldStaff, model.FieldDifferentlyAbled, model.FieldClassrooms, model.FieldPlayground,
	model.FieldEateries, model.FieldHospital, model.FieldRestrooms,
}

var restroomTooltip = []model.Field{
	model.FieldSchoolName, model.FieldDistrict, model.FieldStaff,
	model.FieldStudents, model.FieldDifferentlyAbled,
}

var barTooltip = []model.Field{
	model.FieldSchoolCount, model.FieldStudents, model.FieldStaff,
}

var recipes = map[Selection]Recipe{
	AllByDistrict: {
		Name: "students_by_district",
		Build: func(ds *model.Dataset) chart.Intent {
			return scatter("students_by_district", ds.Records, model.FieldDistrict, scatterTooltip)
		},
	},
	ByCategory: {
		Name: "schools_by_category",
		Build: func(ds *model.Dataset) chart.Intent {
			return bar("schools_by_category", ds.Records, model.FieldCategory)
		},
	},
	WithoutRestrooms: {
		Name: "schools_without_restrooms",
		Build: func(ds *model.Dataset) chart.Intent {
			rs := aggregate.Filter(ds.Records, aggregate.NoRestrooms)
			return scatter("schools_without_restrooms", rs, model.FieldDistrict, restroomTooltip)
		},
	},
	ByMedium: {
		Name: "schools_by_medium",
		Build: func(ds *model.Dataset) chart.Intent {
			return bar("schools_by_medium", ds.Records, model.FieldMedium)
		},
	},
	PlaygroundByDistrict: {
		Name: "playground_by_district",
		Build: func(ds *model.Dataset) chart.Intent {
			return scatter("playground_by_district", ds.Records, model.FieldPlayground, scatterTooltip)
		},
	},
}

// RecipeFor returns the recipe of a selection
func RecipeFor(s Selection) Recipe {
	return recipes[ParseSelection(int(s))]
}

// Selections lists every defined selection in order
func Selections() []Selection {
	return []Selection{AllByDistrict, ByCategory, WithoutRestrooms, ByMedium, PlaygroundByDistrict}
}

func scatter(title string, records []model.Record, color model.Field, tooltip []model.Field) chart.Intent {
	points := make([]chart.Point, 0, len(records))
	for i := range records {
		rec := records[i]
		points = append(points, chart.Point{
			X:      rec.District,
			Y:      rec.Students,
			Color:  rec.Value(color),
			Record: &rec,
		})
	}
	return chart.Intent{
		Shape:   chart.ShapeScatter,
		Title:   title,
		X:       model.FieldDistrict,
		Y:       model.FieldStudents,
		Color:   color,
		Tooltip: tooltip,
		Points:  points,
	}
}

func bar(title string, records []model.Record, key model.Field) chart.Intent {
	groups := aggregate.GroupBy(records, key)
	bars := make([]chart.Bar, 0, len(groups))
	for _, s := range aggregate.SummarizeAll(groups) {
		bars = append(bars, chart.Bar{Summary: s, Value: s.Count})
	}
	return chart.Intent{
		Shape:   chart.ShapeBar,
		Title:   title,
		X:       key,
		Y:       model.FieldSchoolCount,
		Color:   key,
		Tooltip: barTooltip,
		Bars:    bars,
	}
}
