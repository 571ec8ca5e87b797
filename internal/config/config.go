// Package config loads the refetch.json project configuration used by the
// refetch CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "refetch.json"

	// DefaultAddr is the default serve address.
	DefaultAddr = "localhost:8080"

	// DefaultStaleTime is the default freshness window for sources.
	DefaultStaleTime = 30 * time.Second
)

// Config represents the complete refetch.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Addr is the address the serve command listens on.
	Addr string `json:"addr,omitempty"`

	// Sources are the remote resources the serve command exposes.
	Sources []SourceConfig `json:"sources,omitempty"`

	// Budget limits fetch starts across all sources.
	Budget BudgetConfig `json:"budget,omitempty"`
}

// SourceConfig describes one remote resource.
type SourceConfig struct {
	// Name identifies the source in routes and metrics. Required.
	Name string `json:"name"`

	// URL is fetched with GET. Required.
	URL string `json:"url"`

	// StaleTimeMS is the freshness window in milliseconds. Zero means
	// every Fetch revalidates.
	StaleTimeMS int `json:"staleTimeMs,omitempty"`

	// RetryCount is the number of additional attempts on error.
	RetryCount int `json:"retryCount,omitempty"`

	// RetryDelayMS is the pause between attempts in milliseconds.
	RetryDelayMS int `json:"retryDelayMs,omitempty"`
}

// BudgetConfig caps fetch starts inside a sliding window. A zero MaxFetches
// disables the cap.
type BudgetConfig struct {
	MaxFetches int `json:"maxFetches,omitempty"`
	WindowMS   int `json:"windowMs,omitempty"`
}

// StaleTime returns the source freshness window as a duration.
func (s SourceConfig) StaleTime() time.Duration {
	if s.StaleTimeMS <= 0 {
		return 0
	}
	return time.Duration(s.StaleTimeMS) * time.Millisecond
}

// RetryDelay returns the pause between retry attempts as a duration.
func (s SourceConfig) RetryDelay() time.Duration {
	if s.RetryDelayMS <= 0 {
		return 0
	}
	return time.Duration(s.RetryDelayMS) * time.Millisecond
}

// Window returns the budget window as a duration.
func (b BudgetConfig) Window() time.Duration {
	if b.WindowMS <= 0 {
		return time.Second
	}
	return time.Duration(b.WindowMS) * time.Millisecond
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Addr: DefaultAddr,
	}
}

// Load reads configuration from the given directory. A missing file yields
// the defaults, not an error.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Save writes the configuration to the given directory.
func (c *Config) Save(dir string) error {
	path := filepath.Join(dir, ConfigFileName)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if src.URL == "" {
			return fmt.Errorf("source %q: url is required", src.Name)
		}
		if seen[src.Name] {
			return fmt.Errorf("source %q: duplicate name", src.Name)
		}
		seen[src.Name] = true
	}
	if c.Budget.MaxFetches < 0 {
		return fmt.Errorf("budget: maxFetches must not be negative")
	}
	return nil
}
