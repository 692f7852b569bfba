package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/masterpath/internal/config"
	"github.com/abhisek/masterpath/internal/engine"
	"github.com/abhisek/masterpath/internal/kgraph"
	"github.com/abhisek/masterpath/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "masterpath",
	Short: "Adaptive mastery tracking and recommendation engine",
	Long: "Masterpath tracks per-concept mastery with Bayesian knowledge tracing,\n" +
		"matches question difficulty to learner ability on an Elo scale, and\n" +
		"walks learners through a prerequisite-gated knowledge graph.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides MASTERPATH_CONFIG env var)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MASTERPATH_DB env var)")
	rootCmd.PersistentFlags().String("graphs", "", "Path to knowledge-graph directory")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config, falling back to the
// default path. A missing file yields the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return config.Load(path)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then the config file, then MASTERPATH_DB / the XDG default.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Storage.DBPath != "" {
		return cfg.Storage.DBPath, store.EnsureDir(cfg.Storage.DBPath)
	}
	return store.DefaultDBPath()
}

// resolveGraphsDir returns the knowledge-graph directory using the
// --graphs flag, then the config file, then the default next to the
// database.
func resolveGraphsDir(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("graphs"); p != "" {
		return p, nil
	}
	if cfg.Storage.GraphsDir != "" {
		return cfg.Storage.GraphsDir, nil
	}
	return store.DefaultGraphsDir()
}

// buildLogger constructs the zap logger from the logging section.
func buildLogger(l config.Logging) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", l.Level, err)
	}

	zc := zap.NewProductionConfig()
	if l.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// openService wires the store, registry and engine for one-shot commands.
// The returned close function releases the database.
func openService(cmd *cobra.Command) (*engine.Service, *store.Store, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	graphsDir, err := resolveGraphsDir(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, nil, err
	}

	svc := engine.NewService(st, kgraph.NewRegistry(graphsDir), engine.TuningFromConfig(cfg.Engine), zap.NewNop())
	return svc, st, func() { st.Close() }, nil
}
