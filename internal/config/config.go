// Package config loads dec-go settings from a YAML file.
//
// Every field has a default, so a config file only needs the values it
// changes. Command-line flags are applied on top of the loaded file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Benny93/dec-go/internal/centrality"
	"github.com/Benny93/dec-go/internal/engine"
	"github.com/Benny93/dec-go/internal/ingestion"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "dec.yaml"

// configValidate is shared; validator caches struct metadata per instance.
var configValidate = validator.New(validator.WithRequiredStructEnabled())

// Config holds all dec-go settings.
type Config struct {
	// Window is P, the decay horizon and trend window length.
	Window int `yaml:"window" validate:"min=2"`

	// TopK is how many keywords are reported per interval.
	TopK int `yaml:"top_k" validate:"min=1"`

	// InputDir holds the numbered interval files.
	InputDir string `yaml:"input_dir"`

	// OutputDir receives ecentralityN.txt files. Empty disables them.
	OutputDir string `yaml:"output_dir"`

	// FilePattern names interval files; it must contain one %d verb.
	FilePattern string `yaml:"file_pattern" validate:"required,contains=%d"`

	// StopwordsPath replaces the built-in stopword list when set.
	StopwordsPath string `yaml:"stopwords_path" validate:"omitempty,file"`

	// IntervalMinutes is the interval length used when splitting raw input.
	IntervalMinutes int `yaml:"interval_minutes" validate:"min=1"`

	// StorePath is the result store directory. Empty keeps results in memory.
	StorePath string `yaml:"store_path"`

	// HTTPAddr is the listen address of the query API.
	HTTPAddr string `yaml:"http_addr" validate:"omitempty,hostname_port"`

	// MetricsAddr exposes /metrics during batch and watch runs when set.
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`

	// Workers bounds concurrent file tokenization. Zero uses all CPUs.
	Workers int `yaml:"workers" validate:"gte=0"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Centrality tunes the power iteration.
	Centrality centrality.Options `yaml:"centrality"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Window:          engine.DefaultWindow,
		TopK:            engine.DefaultTopK,
		InputDir:        "intervals",
		OutputDir:       "dec_vals",
		FilePattern:     ingestion.DefaultFilePattern,
		IntervalMinutes: int(ingestion.DefaultSplitInterval / time.Minute),
		StorePath:       ".dec",
		HTTPAddr:        "127.0.0.1:8420",
		LogLevel:        "info",
		Centrality:      centrality.DefaultOptions(),
	}
}

// Load reads a YAML config file over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads DefaultFileName from dir if it exists, else the defaults.
func LoadDefault(dir string) (*Config, error) {
	path := filepath.Join(dir, DefaultFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks all fields and reports every violation at once.
func (c *Config) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "file":
		return fmt.Sprintf("%s: no such file %q", field, fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	case "contains":
		return fmt.Sprintf("%s must contain %q", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// EngineConfig returns the engine settings.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Window:     c.Window,
		TopK:       c.TopK,
		Centrality: c.Centrality,
	}
}

// SplitInterval returns the raw-input interval length.
func (c *Config) SplitInterval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
