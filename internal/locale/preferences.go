package locale

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// PreferenceKey is the fixed key the locale preference is stored under
const PreferenceKey = "locale"

// Preferences persists user preferences in a small YAML file
type Preferences struct {
	path string
	v    *viper.Viper
}

// OpenPreferences reads the preferences file at path. A missing file is not an error.
func OpenPreferences(path string) (*Preferences, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault(PreferenceKey, string(Default))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read preferences: %w", err)
		}
	}

	return &Preferences{path: path, v: v}, nil
}

// Path returns the preferences file location
func (p *Preferences) Path() string {
	return p.path
}

// Locale returns the stored locale, or the default when unset or invalid
func (p *Preferences) Locale() Tag {
	tag, err := ParseTag(p.v.GetString(PreferenceKey))
	if err != nil {
		return Default
	}
	return tag
}

// SetLocale validates and persists the locale preference
func (p *Preferences) SetLocale(tag Tag) error {
	if _, err := ParseTag(string(tag)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}

	p.v.Set(PreferenceKey, string(tag))
	if err := p.v.WriteConfigAs(p.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
