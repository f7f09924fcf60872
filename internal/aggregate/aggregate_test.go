package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/schooldash/internal/model"
)

func records() []model.Record {
	return []model.Record{
		{SchoolName: "A", District: "Chennai", Category: "Primary", Medium: "Tamil", Students: 10, Staff: 2, Restrooms: 1, Playground: "Yes"},
		{SchoolName: "B", District: "Madurai", Category: "Middle", Medium: "English", Students: 20, Staff: 3, Restrooms: 0, Playground: "No"},
		{SchoolName: "C", District: "Chennai", Category: "Primary", Medium: "Tamil", Students: 30, Staff: 4, Restrooms: 2, Playground: "-"},
		{SchoolName: "D", District: "Salem", Category: model.Placeholder, Medium: "English", Students: 5, Staff: 1, Restrooms: 0, Playground: "No"},
	}
}

func TestGroupBy_Partitions(t *testing.T) {
	in := records()
	groups := GroupBy(in, model.FieldCategory)

	require.Len(t, groups, 3)
	assert.Equal(t, "Primary", groups[0].Key)
	assert.Equal(t, "Middle", groups[1].Key)
	assert.Equal(t, model.Placeholder, groups[2].Key)

	// Membership follows input order
	assert.Equal(t, []string{"A", "C"}, names(groups[0].Records))

	// Union of groups equals the input multiset
	var all []model.Record
	for _, g := range groups {
		all = append(all, g.Records...)
	}
	assert.ElementsMatch(t, names(in), names(all))
}

func TestGroupBy_Empty(t *testing.T) {
	assert.Empty(t, GroupBy(nil, model.FieldDistrict))
}

func TestSummarize(t *testing.T) {
	g := Group{Key: "k", Records: []model.Record{{Students: 10, Staff: 1}, {Students: 20, Staff: 2}, {Students: 30, Staff: 3}}}
	s := Summarize(g)

	assert.Equal(t, "k", s.Key)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 60, s.StudentSum)
	assert.Equal(t, 6, s.StaffSum)
}

func TestSummarizeAllAndLargest(t *testing.T) {
	sums := SummarizeAll(GroupBy(records(), model.FieldCategory))
	require.Len(t, sums, 3)

	best, ok := Largest(sums)
	require.True(t, ok)
	assert.Equal(t, "Primary", best.Key)
	assert.Equal(t, 40, best.StudentSum)

	_, ok = Largest(nil)
	assert.False(t, ok)
}

func TestSummarizeAll_ByMedium(t *testing.T) {
	got := SummarizeAll(GroupBy(records(), model.FieldMedium))
	want := []model.GroupSummary{
		{Key: "Tamil", Count: 2, StudentSum: 40, StaffSum: 6},
		{Key: "English", Count: 2, StudentSum: 25, StaffSum: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SummarizeAll mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_DoesNotMutate(t *testing.T) {
	in := records()
	before := names(in)

	out := Filter(in, NoRestrooms)
	assert.Equal(t, []string{"B", "D"}, names(out))
	assert.Equal(t, before, names(in))

	assert.Equal(t, []string{"B", "D"}, names(Filter(in, NoPlayground)))
	assert.Equal(t, []string{"B", "D"}, names(Filter(in, EnglishMedium)))
	assert.NotNil(t, Filter(nil, NoRestrooms))
}

func TestNoRestrooms_SkipsUnparsedCount(t *testing.T) {
	in := []model.Record{
		{SchoolName: "A", Restrooms: 3},
		{SchoolName: "B", Restrooms: 0, Faults: []model.Field{model.FieldRestrooms}},
		{SchoolName: "C", Restrooms: 0, Faults: []model.Field{model.FieldStudents}},
	}
	assert.Equal(t, []string{"C"}, names(Filter(in, NoRestrooms)))
	assert.Equal(t, 1, Count(in, NoRestrooms))
}

func TestCount(t *testing.T) {
	assert.Equal(t, 2, Count(records(), EnglishMedium))
}

func TestPercentOf(t *testing.T) {
	got, err := PercentOf(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 34, got)

	got, err = PercentOf(30, 60)
	require.NoError(t, err)
	assert.Equal(t, 50, got)

	_, err = PercentOf(30, 0)
	assert.ErrorIs(t, err, ErrZeroDenominator)
}

func TestAveragePerStaff(t *testing.T) {
	got, err := AveragePerStaff(100, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	got, err = AveragePerStaff(101, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, got)

	_, err = AveragePerStaff(5, 0)
	assert.ErrorIs(t, err, ErrZeroDenominator)
}

func TestTotals(t *testing.T) {
	students, staff := Totals(records())
	assert.Equal(t, 65, students)
	assert.Equal(t, 10, staff)
}

func names(rs []model.Record) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.SchoolName)
	}
	return out
}
