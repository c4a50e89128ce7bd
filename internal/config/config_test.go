package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Service.BaseURL != "http://localhost:8000/api/v1" {
		t.Errorf("BaseURL = %q", cfg.Service.BaseURL)
	}
	if cfg.Feed.PageSize != 20 || cfg.Feed.DebounceMs != 300 {
		t.Errorf("feed defaults = %+v", cfg.Feed)
	}
}

func TestLoadFromCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Feed.PageSize != 20 {
		t.Errorf("PageSize = %d, want default 20", cfg.Feed.PageSize)
	}
}

func TestLoadFromCorruptFileStillAppliesEnv(t *testing.T) {
	t.Setenv("SMARTBRIEF_URL", "http://env.example/api/v1")
	t.Setenv("SMARTBRIEF_API_KEY", "envkey")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Service.BaseURL != "http://env.example/api/v1" {
		t.Errorf("BaseURL = %q, env should win over a corrupt file", cfg.Service.BaseURL)
	}
	if cfg.Service.APIKey != "envkey" {
		t.Errorf("APIKey = %q", cfg.Service.APIKey)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "config.json")

	cfg := DefaultConfig()
	cfg.Service.BaseURL = "http://news.example.com/api/v1"
	cfg.Service.APIKey = "k123"
	cfg.Feed.PageSize = 50
	cfg.Feed.Category = "science"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Service.BaseURL != cfg.Service.BaseURL {
		t.Errorf("BaseURL = %q", got.Service.BaseURL)
	}
	if got.Service.APIKey != "k123" {
		t.Errorf("APIKey = %q", got.Service.APIKey)
	}
	if got.Feed.PageSize != 50 || got.Feed.Category != "science" {
		t.Errorf("feed = %+v", got.Feed)
	}
}

func TestPartialFileFillsZeroes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"service": {"base_url": "http://other/api/v1"}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Service.BaseURL != "http://other/api/v1" {
		t.Errorf("BaseURL = %q", cfg.Service.BaseURL)
	}
	if cfg.Service.TimeoutSeconds != 15 {
		t.Errorf("TimeoutSeconds = %d, want default", cfg.Service.TimeoutSeconds)
	}
	if cfg.Feed.PageSize != 20 || cfg.Feed.SortBy != "publishedAt" {
		t.Errorf("feed = %+v", cfg.Feed)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SMARTBRIEF_URL", "http://env.example/api/v1")
	t.Setenv("SMARTBRIEF_API_KEY", "envkey")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Service.BaseURL != "http://env.example/api/v1" {
		t.Errorf("BaseURL = %q", cfg.Service.BaseURL)
	}
	if cfg.Service.APIKey != "envkey" {
		t.Errorf("APIKey = %q", cfg.Service.APIKey)
	}
}
