package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Article service connection
	Service ServiceConfig `json:"service"`

	// Feed behavior
	Feed FeedConfig `json:"feed"`

	// UI Preferences
	UI UIConfig `json:"ui"`
}

// ServiceConfig holds the article service connection settings
type ServiceConfig struct {
	BaseURL           string  `json:"base_url"`
	APIKey            string  `json:"api_key,omitempty"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// FeedConfig holds feed synchronization settings
type FeedConfig struct {
	PageSize   int    `json:"page_size"`
	DebounceMs int    `json:"debounce_ms"` // search keystroke debounce
	Category   string `json:"category"`    // startup category, empty = all
	SortBy     string `json:"sort_by"`
	SortOrder  string `json:"sort_order"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme       string `json:"theme"`
	DensityMode string `json:"density_mode"` // "comfortable" or "compact"
	ShowImages  bool   `json:"show_images"`  // render image URLs in the detail pane
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:           "http://localhost:8000/api/v1",
			TimeoutSeconds:    15,
			RequestsPerSecond: 10,
		},
		Feed: FeedConfig{
			PageSize:   20,
			DebounceMs: 300,
			SortBy:     "publishedAt", // camelCase field name, per the wire contract
			SortOrder:  "desc",
		},
		UI: UIConfig{
			Theme:       "dark",
			DensityMode: "comfortable",
			ShowImages:  false,
		},
	}
}

// Dir returns the application data directory (~/.smartbrief)
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".smartbrief")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads config from the default path, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from the given path. Missing and corrupt files
// both yield defaults populated from the environment.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
		cfg.AutoPopulateFromEnv()
		return cfg, nil
	}
	cfg.fillZeroes()
	cfg.AutoPopulateFromEnv()

	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to the given path, creating parent directories
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for the API key
}

// AutoPopulateFromEnv overrides connection settings from environment
// variables. Env always wins over file contents.
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv("SMARTBRIEF_URL"); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv("SMARTBRIEF_API_KEY"); v != "" {
		c.Service.APIKey = v
	}
}

// fillZeroes restores defaults for fields an older or hand-edited config
// file left unset.
func (c *Config) fillZeroes() {
	def := DefaultConfig()
	if c.Service.BaseURL == "" {
		c.Service.BaseURL = def.Service.BaseURL
	}
	if c.Service.TimeoutSeconds <= 0 {
		c.Service.TimeoutSeconds = def.Service.TimeoutSeconds
	}
	if c.Service.RequestsPerSecond <= 0 {
		c.Service.RequestsPerSecond = def.Service.RequestsPerSecond
	}
	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = def.Feed.PageSize
	}
	if c.Feed.DebounceMs <= 0 {
		c.Feed.DebounceMs = def.Feed.DebounceMs
	}
	if c.Feed.SortBy == "" {
		c.Feed.SortBy = def.Feed.SortBy
	}
	if c.Feed.SortOrder == "" {
		c.Feed.SortOrder = def.Feed.SortOrder
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.UI.DensityMode == "" {
		c.UI.DensityMode = def.UI.DensityMode
	}
}
