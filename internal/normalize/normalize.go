// Package normalize converts raw dataset rows into canonical records.
//
// Normalization is total: a bad value never fails a record or a load. Numeric
// fields that cannot be parsed become 0 and are listed in Record.Faults; absent
// text becomes model.Placeholder.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/schooldash/internal/model"
)

// timeLayouts are tried in order when parsing timestamps
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// Fault describes one unparseable field of one record
type Fault struct {
	Index  int         `json:"index"` // Position of the record in the dataset
	School string      `json:"school"`
	Field  model.Field `json:"field"`
	Raw    string      `json:"raw"`
}

// ParseCount parses a non-negative integer count.
// It reports false for the sentinel, empty, non-numeric, non-integral or negative input,
// in which case the count is 0.
func ParseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, model.Sentinel) {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}

	// Some rows carry counts such as "12.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Text returns s, or the placeholder when s is empty or the sentinel
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, model.Sentinel) {
		return model.Placeholder
	}
	return s
}

// Availability collapses a yes/no flag into "Yes", "No" or the placeholder
func Availability(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "available":
		return "Yes"
	case "no", "n", "false", "0", "not available":
		return "No"
	default:
		return model.Placeholder
	}
}

// ParseTime parses a timestamp in any of the known layouts.
// The zero time is returned when no layout matches.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, model.Sentinel) {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	// Epoch milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// Record converts one raw row into a canonical record. It performs no I/O.
func Record(raw model.RawRecord) model.Record {
	rec := model.Record{
		SchoolName:  Text(raw.String(model.RawSchoolName)),
		District:    Text(raw.String(model.RawDistrict)),
		Category:    Text(raw.String(model.RawCategory)),
		Established: Text(raw.String(model.RawEstablished)),
		Medium:      Text(raw.String(model.RawMedium)),
		Subjects:    Text(raw.String(model.RawSubjects)),
		Pincode:     Text(raw.String(model.RawPincode)),
		Playground:  Availability(raw.String(model.RawPlayground)),
		Eateries:    Text(raw.String(model.RawEateries)),
		Hospital:    Text(raw.String(model.RawHospital)),
		Status:      Text(raw.String(model.RawStatus)),
	}

	counts := []struct {
		field model.Field
		key   string
		dst   *int
	}{
		{model.FieldDifferentlyAbled, model.RawDifferentlyAbled, &rec.DifferentlyAbled},
		{model.FieldStudents, model.RawStudents, &rec.Students},
		{model.FieldStaff, model.RawStaff, &rec.Staff},
		{model.FieldClassrooms, model.RawClassrooms, &rec.Classrooms},
		{model.FieldRestrooms, model.RawRestrooms, &rec.Restrooms},
	}
	for _, c := range counts {
		n, ok := ParseCount(raw.String(c.key))
		*c.dst = n
		if !ok {
			rec.Faults = append(rec.Faults, c.field)
		}
	}

	rec.LastModified, _ = ParseTime(raw.String(model.RawLastModified))
	return rec
}

// Dataset normalizes a fetched envelope. Faults are reported per record and field.
func Dataset(env *model.Envelope) (*model.Dataset, []Fault) {
	ds := &model.Dataset{
		Records: make([]model.Record, 0, len(env.Data)),
	}
	ds.UpdatedAt, _ = ParseTime(env.UpdatedAt)

	var faults []Fault
	for i, raw := range env.Data {
		rec := Record(raw)
		for _, f := range rec.Faults {
			faults = append(faults, Fault{
				Index:  i,
				School: rec.SchoolName,
				Field:  f,
				Raw:    raw.String(rawKey(f)),
			})
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, faults
}

func rawKey(f model.Field) string {
	switch f {
	case model.FieldDifferentlyAbled:
		return model.RawDifferentlyAbled
	case model.FieldStudents:
		return model.RawStudents
	case model.FieldStaff:
		return model.RawStaff
	case model.FieldClassrooms:
		return model.RawClassrooms
	case model.FieldRestrooms:
		return model.RawRestrooms
	default:
		return string(f)
	}
}
