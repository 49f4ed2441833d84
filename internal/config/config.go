// Package config loads StudyHall configuration from studyhall.yaml with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all StudyHall configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP surface
	Server ServerConfig `yaml:"server"`

	// Generation gateway
	Generation GenerationConfig `yaml:"generation"`

	// SQLite storage
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen          string `yaml:"listen"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"`
}

// GenerationConfig configures the generation gateway and its interpreter.
type GenerationConfig struct {
	// Provider selects which AI provider the interpreter scripts call.
	Provider string `yaml:"provider"` // gemini, anthropic
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`

	// Interpreters are candidate binary names, probed in order.
	Interpreters []string `yaml:"interpreters"`

	// ScriptDir is where transient prompt scripts are written.
	// Empty means the OS temp directory.
	ScriptDir string `yaml:"script_dir"`

	// Per-content-type wall-clock budgets.
	IngestTimeout string `yaml:"ingest_timeout"`
	LessonTimeout string `yaml:"lesson_timeout"`
	ExamTimeout   string `yaml:"exam_timeout"`

	// MaxOutputBytes caps captured interpreter stdout/stderr.
	MaxOutputBytes int64 `yaml:"max_output_bytes"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures categorized debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "studyhall",
		Version: "1.0.0",
		Server: ServerConfig{
			Listen:          ":8080",
			ShutdownTimeout: "10s",
			MaxUploadBytes:  32 * 1024 * 1024,
		},
		Generation: GenerationConfig{
			Provider:       "gemini",
			Model:          "gemini-1.5-flash",
			Interpreters:   []string{"python3", "python"},
			IngestTimeout:  "60s",
			LessonTimeout:  "45s",
			ExamTimeout:    "90s",
			MaxOutputBytes: 1 * 1024 * 1024,
		},
		Storage: StorageConfig{
			DatabasePath: ".studyhall/studyhall.db",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads configuration from the given path, falling back to defaults
// when the file does not exist, and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variables over file values.
// API keys are only ever read from the environment or the config file and are
// passed to the interpreter via its environment, never via argv.
func (c *Config) applyEnvOverrides() {
	// Provider API key, checked in priority order.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Generation.APIKey = key
		if c.Generation.Provider == "" {
			c.Generation.Provider = "gemini"
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Generation.APIKey = key
		c.Generation.Provider = "anthropic"
	}

	if listen := os.Getenv("STUDYHALL_LISTEN"); listen != "" {
		c.Server.Listen = listen
	}
	if path := os.Getenv("STUDYHALL_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if interp := os.Getenv("STUDYHALL_INTERPRETER"); interp != "" {
		c.Generation.Interpreters = strings.Split(interp, ",")
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if len(c.Generation.Interpreters) == 0 {
		return fmt.Errorf("generation.interpreters must list at least one binary")
	}
	switch c.Generation.Provider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("generation.provider must be gemini or anthropic, got %q", c.Generation.Provider)
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}
	return nil
}

// parseDuration converts a config duration string, falling back when unset
// or malformed. Config timeouts are budgets, not correctness knobs.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// IngestTimeout returns the wall-clock budget for ingest generation.
func (c *Config) IngestTimeout() time.Duration {
	return parseDuration(c.Generation.IngestTimeout, 60*time.Second)
}

// LessonTimeout returns the wall-clock budget for lesson generation.
func (c *Config) LessonTimeout() time.Duration {
	return parseDuration(c.Generation.LessonTimeout, 45*time.Second)
}

// ExamTimeout returns the wall-clock budget for exam generation.
func (c *Config) ExamTimeout() time.Duration {
	return parseDuration(c.Generation.ExamTimeout, 90*time.Second)
}

// ShutdownTimeout returns the HTTP server drain budget.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}
