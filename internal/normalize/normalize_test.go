package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/schooldash/internal/model"
)

func fixtureRow() model.RawRecord {
	return model.RawRecord{
		"school_name":                         "Corporation Middle School",
		"district":                            "Chennai",
		"category_of_school":                  "Middle",
		"yearof_establishment":                "NULL",
		"school_medium":                       "Tamil",
		"subject_offered":                     "NULL",
		"pincode":                             "600001",
		"number_of_differently_abled_student": "2",
		"number_of_students":                  "412",
		"number_of_staff":                     "14",
		"number_of_classrooms":                "12",
		"availabilty_of_playground":           "NULL",
		"availabilty_of_eateries":             "Yes",
		"availabilty_of_hospital":             "No",
		"number_of_restrooms":                 "0",
		"last_modified":                       "2018-03-06",
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"412", 412, true},
		{" 17 ", 17, true},
		{"12.0", 12, true},
		{"NULL", 0, false},
		{"null", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"-3", 0, false},
		{"1.5", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCount(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestRecord_Fixture(t *testing.T) {
	rec := Record(fixtureRow())

	assert.Equal(t, "Corporation Middle School", rec.SchoolName)
	assert.Equal(t, "Chennai", rec.District)
	assert.Equal(t, "Middle", rec.Category)
	assert.Equal(t, model.Placeholder, rec.Established)
	assert.Equal(t, model.Placeholder, rec.Subjects)
	assert.Equal(t, model.Placeholder, rec.Playground)
	assert.Equal(t, 412, rec.Students)
	assert.Equal(t, 14, rec.Staff)
	assert.Equal(t, 12, rec.Classrooms)
	assert.Equal(t, 2, rec.DifferentlyAbled)
	assert.Equal(t, 0, rec.Restrooms)
	assert.Empty(t, rec.Faults)
	assert.Equal(t, time.Date(2018, 3, 6, 0, 0, 0, 0, time.UTC), rec.LastModified)
}

func TestRecord_SentinelCountsBecomeZeroWithFault(t *testing.T) {
	row := fixtureRow()
	row["number_of_students"] = "NULL"
	row["number_of_staff"] = "n/a"
	delete(row, "number_of_restrooms")

	rec := Record(row)

	assert.Equal(t, 0, rec.Students)
	assert.Equal(t, 0, rec.Staff)
	assert.Equal(t, 0, rec.Restrooms)
	assert.ElementsMatch(t, []model.Field{model.FieldStudents, model.FieldStaff, model.FieldRestrooms}, rec.Faults)
}

func TestRecord_JSONNumbers(t *testing.T) {
	row := fixtureRow()
	row["number_of_students"] = float64(99)

	rec := Record(row)
	assert.Equal(t, 99, rec.Students)
}

func TestRecord_EmptyRow(t *testing.T) {
	rec := Record(model.RawRecord{})

	assert.Equal(t, model.Placeholder, rec.SchoolName)
	assert.Equal(t, model.Placeholder, rec.Playground)
	assert.True(t, rec.LastModified.IsZero())
	assert.Len(t, rec.Faults, 5)
}

func TestAvailability(t *testing.T) {
	assert.Equal(t, "Yes", Availability("YES"))
	assert.Equal(t, "No", Availability("no"))
	assert.Equal(t, model.Placeholder, Availability("NULL"))
	assert.Equal(t, model.Placeholder, Availability("maybe"))
}

func TestDataset_IsolatesFaults(t *testing.T) {
	bad := fixtureRow()
	bad["school_name"] = "Broken School"
	bad["number_of_classrooms"] = "twelve"

	env := &model.Envelope{
		UpdatedAt: "2018-03-07T10:00:00Z",
		Data:      []model.RawRecord{fixtureRow(), bad, fixtureRow()},
	}

	ds, faults := Dataset(env)
	require.Equal(t, 3, ds.Len())
	require.Len(t, faults, 1)

	assert.Equal(t, 1, faults[0].Index)
	assert.Equal(t, "Broken School", faults[0].School)
	assert.Equal(t, model.FieldClassrooms, faults[0].Field)
	assert.Equal(t, "twelve", faults[0].Raw)

	assert.Equal(t, 412, ds.Records[1].Students)
	assert.Equal(t, 0, ds.Records[1].Classrooms)
	assert.Equal(t, time.Date(2018, 3, 7, 10, 0, 0, 0, time.UTC), ds.UpdatedAt)
}

func TestParseTime(t *testing.T) {
	_, ok := ParseTime("NULL")
	assert.False(t, ok)

	got, ok := ParseTime("1520416800000")
	require.True(t, ok)
	assert.Equal(t, int64(1520416800000), got.UnixMilli())
}
