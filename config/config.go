// Package config provides loading and parsing of crul.yaml configuration files.
// A configuration selects the graph system ID and ID strategy, the log format,
// and the optional Redis event journal.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hc1839/crul-sub003/eventbus"
	"github.com/hc1839/crul-sub003/hgerr"
	"github.com/hc1839/crul-sub003/id"
)

// ID strategies.
const (
	StrategyUUID    = "uuid"
	StrategyContent = "content"
)

// Config represents a crul.yaml configuration file.
type Config struct {
	System    SystemConfig     `yaml:"system"`
	Logging   LoggingConfig    `yaml:"logging"`
	Events    *EventsConfig    `yaml:"events,omitempty"`
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// SystemConfig configures the graph system.
type SystemConfig struct {
	// ID is the system ID. Generated when empty.
	ID string `yaml:"id,omitempty"`

	// IDStrategy selects how missing graph and construct IDs are minted:
	// "uuid" (random) or "content" (BLAKE3 of the construct's content).
	// Default: uuid
	IDStrategy string `yaml:"id_strategy,omitempty"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level,omitempty"`

	// Format is text or json. Default: text
	Format string `yaml:"format,omitempty"`
}

// EventsConfig enables the Redis event journal.
type EventsConfig struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string `yaml:"url"`

	// Channel is the pub/sub channel. Default: "crul:events"
	Channel string `yaml:"channel,omitempty"`

	// JournalKey is the journal list key. Default: "crul:journal"
	JournalKey string `yaml:"journal_key,omitempty"`

	// JournalLimit caps the journal length. 0 keeps every event.
	JournalLimit int `yaml:"journal_limit,omitempty"`

	// ConnectTimeout is a Go duration string. Default: 5s
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`

	// PublishTimeout is a Go duration string. Default: 2s
	PublishTimeout string `yaml:"publish_timeout,omitempty"`
}

// TelemetryConfig names the OpenTelemetry instrumentation scope.
type TelemetryConfig struct {
	Instrumentation string `yaml:"instrumentation,omitempty"`
}

// GetIDStrategy returns the configured strategy or the default value.
func (s SystemConfig) GetIDStrategy() string {
	if s.IDStrategy == "" {
		return StrategyUUID
	}
	return s.IDStrategy
}

// Generator returns the ID generator of the configured strategy.
func (s SystemConfig) Generator() id.Generator {
	if s.GetIDStrategy() == StrategyContent {
		return id.ContentGenerator{}
	}
	return id.UUIDGenerator{}
}

// GetLevel returns the configured level, or info if unset or invalid.
func (l LoggingConfig) GetLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds a logger writing to w in the configured format.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.GetLevel()}
	if strings.ToLower(l.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// GetChannel returns the channel or the default value.
func (e *EventsConfig) GetChannel() string {
	if e == nil || e.Channel == "" {
		return eventbus.DefaultChannel
	}
	return e.Channel
}

// GetJournalKey returns the journal key or the default value.
func (e *EventsConfig) GetJournalKey() string {
	if e == nil || e.JournalKey == "" {
		return eventbus.DefaultJournalKey
	}
	return e.JournalKey
}

// GetJournalLimit returns the journal limit, treating negative values as 0.
func (e *EventsConfig) GetJournalLimit() int {
	if e == nil || e.JournalLimit < 0 {
		return 0
	}
	return e.JournalLimit
}

// GetConnectTimeout parses the connect timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (e *EventsConfig) GetConnectTimeout() time.Duration {
	if e == nil || e.ConnectTimeout == "" {
		return eventbus.DefaultConnectTimeout
	}
	d, err := time.ParseDuration(e.ConnectTimeout)
	if err != nil || d <= 0 {
		return eventbus.DefaultConnectTimeout
	}
	return d
}

// GetPublishTimeout parses the publish timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (e *EventsConfig) GetPublishTimeout() time.Duration {
	if e == nil || e.PublishTimeout == "" {
		return eventbus.DefaultPublishTimeout
	}
	d, err := time.ParseDuration(e.PublishTimeout)
	if err != nil || d <= 0 {
		return eventbus.DefaultPublishTimeout
	}
	return d
}

// GetInstrumentation returns the instrumentation scope name or the default.
func (t *TelemetryConfig) GetInstrumentation() string {
	if t == nil || t.Instrumentation == "" {
		return "github.com/hc1839/crul-sub003"
	}
	return t.Instrumentation
}

// Validate checks the configuration and returns every problem found, joined.
// The result matches hgerr.ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if c.System.ID != "" && !id.IsValid(c.System.ID) {
		errs = append(errs, fmt.Errorf("system.id %q is not a valid name token", c.System.ID))
	}
	switch c.System.GetIDStrategy() {
	case StrategyUUID, StrategyContent:
	default:
		errs = append(errs, fmt.Errorf("system.id_strategy %q must be %q or %q", c.System.IDStrategy, StrategyUUID, StrategyContent))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}

	if e := c.Events; e != nil {
		if e.URL == "" {
			errs = append(errs, errors.New("events.url is required when events are configured"))
		}
		if e.JournalLimit < 0 {
			errs = append(errs, fmt.Errorf("events.journal_limit %d must not be negative", e.JournalLimit))
		}
		for name, value := range map[string]string{
			"events.connect_timeout": e.ConnectTimeout,
			"events.publish_timeout": e.PublishTimeout,
		} {
			if value == "" {
				continue
			}
			if d, err := time.ParseDuration(value); err != nil || d <= 0 {
				errs = append(errs, fmt.Errorf("%s %q is not a positive duration", name, value))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return hgerr.Configuration("config.Validate", errors.Join(errs...))
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, hgerr.Configuration("config.Parse", fmt.Errorf("failed to parse config file: %w", err))
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Load reads and parses a crul.yaml file from the given path.
// If the path is a directory, it looks for crul.yaml or crul.yml in that directory.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = ""
		for _, name := range []string{"crul.yaml", "crul.yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
		if configPath == "" {
			return nil, fmt.Errorf("no crul.yaml or crul.yml found in %s", path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadFromDir searches for crul.yaml starting from the given directory
// and walking up to parent directories until found or root is reached.
// A file that is found but invalid stops the search.
func LoadFromDir(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		config, err := Load(absDir)
		if err == nil {
			return config, nil
		}
		if errors.Is(err, hgerr.ErrInvalidConfig) {
			return nil, err
		}

		// Move to parent directory
		parent := filepath.Dir(absDir)
		if parent == absDir {
			// Reached root
			return nil, fmt.Errorf("no crul.yaml found in %s or parent directories", dir)
		}
		absDir = parent
	}
}
