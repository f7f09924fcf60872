package model

import "time"

// DefaultDatasetURL is the published location of the school infrastructure dataset
const DefaultDatasetURL = "https://gist.githubusercontent.com/balasubramanim/fc66826974e13e134e33512f9f634d4b/raw"

// Config is the complete schooldash configuration
type Config struct {
	Dataset     DatasetConfig     `yaml:"dataset" mapstructure:"dataset"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Offline     OfflineConfig     `yaml:"offline" mapstructure:"offline"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Chart       ChartConfig       `yaml:"chart" mapstructure:"chart"`
	Preferences PreferencesConfig `yaml:"preferences" mapstructure:"preferences"`
}

// DatasetConfig locates the remote dataset
type DatasetConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// HTTPConfig controls outbound requests
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	RatePerSecond float64       `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int           `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// CacheConfig controls the offline worker's storage
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Empty keeps caches in memory only
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	Version   string        `yaml:"version" mapstructure:"version"` // Suffix of the cache names
}

// OfflineConfig describes the static asset manifest
type OfflineConfig struct {
	Origin      string   `yaml:"origin" mapstructure:"origin"` // Same-origin base URL
	Manifest    []string `yaml:"manifest" mapstructure:"manifest"`
	Concurrency int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig controls the HTTP dashboard surface
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	StaticDir      string   `yaml:"static_dir" mapstructure:"static_dir"` // Page assets served at the root
}

// ChartConfig controls chart rendering
type ChartConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // svg or png
	Width  int    `yaml:"width" mapstructure:"width"`
	Height int    `yaml:"height" mapstructure:"height"`
}

// PreferencesConfig locates the persisted user preferences
type PreferencesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			URL: DefaultDatasetURL,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "schooldash/0.2 (+https://github.com/ppiankov/schooldash)",
			MaxBodyBytes:  16 << 20,
			RespectRobots: false,
			RatePerSecond: 2,
			RateBurst:     2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
			Version:   "tn",
		},
		Offline: OfflineConfig{
			Origin: "http://localhost:8080",
			Manifest: []string{
				"./",
				"./src/stylesheets/style.css",
				"./src/stylesheets/progress.css",
				"./src/stylesheets/responsive.css",
				"./src/assets/favicon.png",
				"./index.js",
			},
			Concurrency: 4,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Chart: ChartConfig{
			Format: "svg",
			Width:  1024,
			Height: 512,
		},
	}
}
