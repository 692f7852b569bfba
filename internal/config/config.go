// Package config loads engine configuration from a TOML file, filling in
// defaults for anything unset. Thresholds and rating factors live here so
// individual deployments can tune them per subject population without
// recompiling.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig []byte

// Storage configures where durable state lives.
type Storage struct {
	// DBPath is the SQLite database file. Empty means the XDG default
	// (see store.DefaultDBPath), overridable via MASTERPATH_DB.
	DBPath string `toml:"db_path"`
	// GraphsDir holds one <subject_id>.json knowledge-graph file per
	// subject.
	GraphsDir string `toml:"graphs_dir"`
}

// Server configures the HTTP API.
type Server struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Engine configures the mastery and rating model.
type Engine struct {
	MasteryThreshold  float64 `toml:"mastery_threshold"`
	LearningThreshold float64 `toml:"learning_threshold"`
	InitialElo        float64 `toml:"initial_elo"`
	EloK              float64 `toml:"elo_k"`
	QuestionK         float64 `toml:"question_k"`
	EloTolerance      float64 `toml:"elo_tolerance"`
	RecencyWindow     int     `toml:"recency_window"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Config is the root configuration document.
type Config struct {
	Storage Storage `toml:"storage"`
	Server  Server  `toml:"server"`
	Engine  Engine  `toml:"engine"`
	Logging Logging `toml:"logging"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Storage: Storage{},
		Server: Server{
			Bind:           "127.0.0.1:8470",
			AllowedOrigins: []string{"*"},
		},
		Engine: Engine{
			MasteryThreshold:  0.90,
			LearningThreshold: 0.40,
			InitialElo:        1200,
			EloK:              24,
			QuestionK:         16,
			EloTolerance:      50,
			RecencyWindow:     5,
		},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// DefaultPath resolves the config file location:
// MASTERPATH_CONFIG env var, then $XDG_CONFIG_HOME/masterpath/config.toml,
// then ~/.config/masterpath/config.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv("MASTERPATH_CONFIG"); p != "" {
		return p, nil
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "masterpath", "config.toml"), nil
}

// Load reads the config file at path, layering it over the defaults. A
// missing file yields the defaults unchanged; a malformed or invalid file
// is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks internal consistency of the loaded values.
func (c *Config) Validate() error {
	e := c.Engine
	if e.MasteryThreshold <= 0 || e.MasteryThreshold > 1 {
		return fmt.Errorf("engine.mastery_threshold must be in (0, 1], got %v", e.MasteryThreshold)
	}
	if e.LearningThreshold < 0 || e.LearningThreshold >= e.MasteryThreshold {
		return fmt.Errorf("engine.learning_threshold must be in [0, mastery_threshold), got %v", e.LearningThreshold)
	}
	if e.EloK <= 0 {
		return fmt.Errorf("engine.elo_k must be > 0, got %v", e.EloK)
	}
	if e.QuestionK < 0 || e.QuestionK > e.EloK {
		return fmt.Errorf("engine.question_k must be in [0, elo_k], got %v", e.QuestionK)
	}
	if e.InitialElo < 0 {
		return fmt.Errorf("engine.initial_elo must be >= 0, got %v", e.InitialElo)
	}
	if e.EloTolerance < 0 {
		return fmt.Errorf("engine.elo_tolerance must be >= 0, got %v", e.EloTolerance)
	}
	if e.RecencyWindow < 0 {
		return fmt.Errorf("engine.recency_window must be >= 0, got %v", e.RecencyWindow)
	}
	if c.Server.Bind == "" {
		return fmt.Errorf("server.bind must not be empty")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// WriteSample writes the annotated sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(path, sampleConfig, 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
