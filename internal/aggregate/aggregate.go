// Package aggregate groups canonical records and derives dataset-wide figures.
// All functions are pure and never modify their input.
package aggregate

import (
	"errors"

	"github.com/ppiankov/schooldash/internal/model"
)

// ErrZeroDenominator is returned when a ratio has nothing to divide by
var ErrZeroDenominator = errors.New("zero denominator")

// Group is the set of records sharing one key value, in input order
type Group struct {
	Key     string
	Records []model.Record
}

// Predicate selects records
type Predicate func(model.Record) bool

// GroupBy partitions records by the value of key.
// Groups are returned in first-seen order; every record lands in exactly one group.
func GroupBy(records []model.Record, key model.Field) []Group {
	index := make(map[string]int)
	var groups []Group

	for _, rec := range records {
		k := rec.Value(key)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}

	return groups
}

// Summarize computes count and sums for a group
func Summarize(g Group) model.GroupSummary {
	students, staff := Totals(g.Records)
	return model.GroupSummary{
		Key:        g.Key,
		Count:      len(g.Records),
		StudentSum: students,
		StaffSum:   staff,
	}
}

// SummarizeAll summarizes every group, preserving order
func SummarizeAll(groups []Group) []model.GroupSummary {
	out := make([]model.GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, Summarize(g))
	}
	return out
}

// Largest returns the summary with the highest student sum. Ties keep the earliest.
func Largest(summaries []model.GroupSummary) (model.GroupSummary, bool) {
	if len(summaries) == 0 {
		return model.GroupSummary{}, false
	}
	best := summaries[0]
	for _, s := range summaries[1:] {
		if s.StudentSum > best.StudentSum {
			best = s
		}
	}
	return best, true
}

// Totals sums students and staff over records
func Totals(records []model.Record) (students, staff int) {
	for _, r := range records {
		students += r.Students
		staff += r.Staff
	}
	return students, staff
}

// Filter returns a new slice of the records matching pred
func Filter(records []model.Record, pred Predicate) []model.Record {
	out := make([]model.Record, 0)
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many records match pred
func Count(records []model.Record, pred Predicate) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

// NoRestrooms matches schools reporting zero restrooms.
// A count that could not be parsed is unknown, not zero.
func NoRestrooms(r model.Record) bool {
	return r.Restrooms == 0 && !r.HasFault(model.FieldRestrooms)
}

// NoPlayground matches schools without a playground
func NoPlayground(r model.Record) bool {
	return r.Playground == "No"
}

// EnglishMedium matches English-medium schools
func EnglishMedium(r model.Record) bool {
	return r.Medium == "English"
}

// PercentOf returns ceil(100 * part / whole)
func PercentOf(part, whole int) (int, error) {
	return ceilDiv(100*int64(part), int64(whole))
}

// AveragePerStaff returns ceil(students / staff)
func AveragePerStaff(students, staff int) (int, error) {
	return ceilDiv(int64(students), int64(staff))
}

func ceilDiv(num, den int64) (int, error) {
	if den == 0 {
		return 0, ErrZeroDenominator
	}
	q := num / den
	if (num%den != 0) && ((num < 0) == (den < 0)) {
		q++
	}
	return int(q), nil
}
