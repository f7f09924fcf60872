package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Sentinel is the source's marker for absent data
const Sentinel = "NULL"

// Raw field names as delivered by the dataset source
const (
	RawSchoolName       = "school_name"
	RawDistrict         = "district"
	RawCategory         = "category_of_school"
	RawEstablished      = "yearof_establishment"
	RawMedium           = "school_medium"
	RawSubjects         = "subject_offered"
	RawPincode          = "pincode"
	RawDifferentlyAbled = "number_of_differently_abled_student"
	RawStudents         = "number_of_students"
	RawStaff            = "number_of_staff"
	RawClassrooms       = "number_of_classrooms"
	RawPlayground       = "availabilty_of_playground"
	RawEateries         = "availabilty_of_eateries"
	RawHospital         = "availabilty_of_hospital"
	RawRestrooms        = "number_of_restrooms"
	RawLastModified     = "last_modified"
	RawStatus           = "data_status"
)

// RawRecord is one untyped dataset row
type RawRecord map[string]any

// String returns the value under key as text. Missing keys yield "".
func (r RawRecord) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Envelope is the JSON document served by the dataset source
type Envelope struct {
	UpdatedAt string      `json:"updatedAt"`
	Data      []RawRecord `json:"data"`
}

// FetchMeta contains HTTP metadata from fetching the dataset
type FetchMeta struct {
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	FromCache    bool              `json:"from_cache"` // Served by the offline worker's cache
	Headers      map[string]string `json:"headers,omitempty"`
}
