package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/masterpath/internal/engine"
	"github.com/abhisek/masterpath/internal/httpapi"
	"github.com/abhisek/masterpath/internal/kgraph"
	"github.com/abhisek/masterpath/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("bind", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command) error {
	_ = godotenv.Load()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return err
	}
	graphsDir, err := resolveGraphsDir(cmd, cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	graphs := kgraph.NewRegistry(graphsDir)
	subjects, err := graphs.Subjects()
	if err != nil {
		logger.Warn("graphs directory unreadable", zap.String("dir", graphsDir), zap.Error(err))
	}

	svc := engine.NewService(st, graphs, engine.TuningFromConfig(cfg.Engine), logger)
	handler := httpapi.NewHandler(svc, graphs, cfg.Server.AllowedOrigins, logger)

	bind := cfg.Server.Bind
	if b, _ := cmd.Flags().GetString("bind"); b != "" {
		bind = b
	}

	srv := &http.Server{
		Addr:              bind,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", bind),
			zap.String("db", dbPath),
			zap.String("graphs", graphsDir),
			zap.Strings("subjects", subjects))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
