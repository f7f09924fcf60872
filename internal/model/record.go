package model

import "time"

// Placeholder is the canonical text for an absent value
const Placeholder = "-"

// Field identifies a canonical record field independently of any display language
type Field string

const (
	FieldSchoolName       Field = "school_name"
	FieldDistrict         Field = "district"
	FieldCategory         Field = "category"
	FieldEstablished      Field = "established"
	FieldMedium           Field = "medium"
	FieldSubjects         Field = "subjects_offered"
	FieldPincode          Field = "pincode"
	FieldDifferentlyAbled Field = "differently_abled"
	FieldStudents         Field = "students"
	FieldStaff            Field = "staff"
	FieldClassrooms       Field = "classrooms"
	FieldPlayground       Field = "playground"
	FieldEateries         Field = "eateries"
	FieldHospital         Field = "hospital"
	FieldRestrooms        Field = "restrooms"
	FieldLastModified     Field = "last_modified"
	FieldStatus           Field = "status"

	// Derived fields produced by aggregation
	FieldSchoolCount Field = "school_count"
)

// Record is the canonical, typed representation of one school
type Record struct {
	SchoolName       string    `json:"school_name"`
	District         string    `json:"district"`
	Category         string    `json:"category"`
	Established      string    `json:"established"`       // Year, "-" if unknown
	Medium           string    `json:"medium"`            // Medium of instruction
	Subjects         string    `json:"subjects_offered"`  // "-" if unknown
	Pincode          string    `json:"pincode"`
	DifferentlyAbled int       `json:"differently_abled"` // Count of differently-abled students
	Students         int       `json:"students"`
	Staff            int       `json:"staff"`
	Classrooms       int       `json:"classrooms"`
	Playground       string    `json:"playground"` // "Yes", "No" or "-"
	Eateries         string    `json:"eateries"`
	Hospital         string    `json:"hospital"`
	Restrooms        int       `json:"restrooms"`
	LastModified     time.Time `json:"last_modified,omitempty"`
	Status           string    `json:"status"`

	Faults []Field `json:"faults,omitempty"` // Numeric fields whose raw value could not be parsed
}

// Value returns the text value of a field, suitable for grouping and filtering.
// Numeric fields are not grouping keys and return the placeholder.
func (r Record) Value(f Field) string {
	switch f {
	case FieldSchoolName:
		return r.SchoolName
	case FieldDistrict:
		return r.District
	case FieldCategory:
		return r.Category
	case FieldEstablished:
		return r.Established
	case FieldMedium:
		return r.Medium
	case FieldSubjects:
		return r.Subjects
	case FieldPincode:
		return r.Pincode
	case FieldPlayground:
		return r.Playground
	case FieldEateries:
		return r.Eateries
	case FieldHospital:
		return r.Hospital
	case FieldStatus:
		return r.Status
	default:
		return Placeholder
	}
}

// Count returns the integer value of a numeric field
func (r Record) Count(f Field) (int, bool) {
	switch f {
	case FieldDifferentlyAbled:
		return r.DifferentlyAbled, true
	case FieldStudents:
		return r.Students, true
	case FieldStaff:
		return r.Staff, true
	case FieldClassrooms:
		return r.Classrooms, true
	case FieldRestrooms:
		return r.Restrooms, true
	default:
		return 0, false
	}
}

// HasFault reports whether f could not be parsed from the raw record
func (r Record) HasFault(f Field) bool {
	for _, ff := range r.Faults {
		if ff == f {
			return true
		}
	}
	return false
}

// Dataset is an immutable, ordered set of records. A reload replaces it.
type Dataset struct {
	Records   []Record  `json:"records"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// GroupSummary holds per-key aggregate figures
type GroupSummary struct {
	Key        string `json:"key"`
	Count      int    `json:"school_count"`
	StudentSum int    `json:"students"`
	StaffSum   int    `json:"staff"`
}
