package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", c.Addr, DefaultAddr)
	}
	if len(c.Sources) != 0 {
		t.Errorf("Expected no sources, got %d", len(c.Sources))
	}
}

func TestLoadParsesSources(t *testing.T) {
	dir := t.TempDir()
	data := `{
  "name": "demo",
  "addr": ":9090",
  "sources": [
    {"name": "users", "url": "https://example.com/users", "staleTimeMs": 5000, "retryCount": 2, "retryDelayMs": 100}
  ],
  "budget": {"maxFetches": 10, "windowMs": 2000}
}`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Addr != ":9090" {
		t.Errorf("Addr = %q", c.Addr)
	}
	if len(c.Sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(c.Sources))
	}
	src := c.Sources[0]
	if src.StaleTime() != 5*time.Second {
		t.Errorf("StaleTime = %v", src.StaleTime())
	}
	if src.RetryDelay() != 100*time.Millisecond {
		t.Errorf("RetryDelay = %v", src.RetryDelay())
	}
	if c.Budget.MaxFetches != 10 || c.Budget.Window() != 2*time.Second {
		t.Errorf("Budget = %+v", c.Budget)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing name", `{"sources": [{"url": "https://example.com"}]}`},
		{"missing url", `{"sources": [{"name": "users"}]}`},
		{"duplicate name", `{"sources": [{"name": "u", "url": "https://a"}, {"name": "u", "url": "https://b"}]}`},
		{"malformed json", `{nope`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tc.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := Default()
	c.Name = "demo"
	c.Sources = []SourceConfig{{Name: "users", URL: "https://example.com/users"}}

	if err := c.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "demo" || len(loaded.Sources) != 1 || loaded.Sources[0].Name != "users" {
		t.Errorf("Round trip mismatch: %+v", loaded)
	}
}
