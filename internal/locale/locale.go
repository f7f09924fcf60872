// Package locale holds the display dictionaries for the supported languages.
//
// Grouping and filtering always work on canonical values; a Dictionary is only
// consulted when text is presented.
package locale

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/schooldash/internal/model"
)

//go:embed en.yaml ta.yaml
var dictionaries embed.FS

// Tag identifies a supported locale
type Tag string

const (
	English Tag = "en"
	Tamil   Tag = "ta"
)

// Default is the locale used when no preference is stored
const Default = English

// ErrUnsupportedLocale is returned for tags without a dictionary
var ErrUnsupportedLocale = errors.New("unsupported locale")

// Supported lists the available locales
func Supported() []Tag {
	return []Tag{English, Tamil}
}

// ParseTag validates a locale tag
func ParseTag(s string) (Tag, error) {
	tag := Tag(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Supported() {
		if t == tag {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, s)
}

// Dictionary maps field keys, enum values, chart titles and summary templates to display text
type Dictionary struct {
	Tag       Tag               `yaml:"-"`
	Labels    map[string]string `yaml:"labels"`
	Values    map[string]string `yaml:"values"`
	Titles    map[string]string `yaml:"titles"`
	Summaries map[int]string    `yaml:"summaries"`
}

// Load reads the embedded dictionary for tag
func Load(tag Tag) (*Dictionary, error) {
	if _, err := ParseTag(string(tag)); err != nil {
		return nil, err
	}

	data, err := dictionaries.ReadFile(string(tag) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", tag, err)
	}
	d.Tag = tag
	return &d, nil
}

// MustLoad is Load for the embedded dictionaries, which are known to parse
func MustLoad(tag Tag) *Dictionary {
	d, err := Load(tag)
	if err != nil {
		panic(err)
	}
	return d
}

// Label returns the display label of a field
func (d *Dictionary) Label(f model.Field) string {
	if d != nil {
		if s, ok := d.Labels[string(f)]; ok {
			return s
		}
	}
	return string(f)
}

// Value translates a canonical value, falling back to the value itself
func (d *Dictionary) Value(v string) string {
	if d != nil {
		if s, ok := d.Values[v]; ok {
			return s
		}
	}
	return v
}

// Title returns the display title for a chart title key
func (d *Dictionary) Title(key string) string {
	if d != nil {
		if s, ok := d.Titles[key]; ok {
			return s
		}
	}
	return key
}

// Summary returns the summary template for a view selection
func (d *Dictionary) Summary(selection int) (string, bool) {
	if d == nil {
		return "", false
	}
	s, ok := d.Summaries[selection]
	return s, ok
}
