package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/simonjohansson/thoughtflow/internal/server"
	"github.com/simonjohansson/thoughtflow/pkg/thoughtflowconfig"
)

type runtimeDefaults struct {
	Addr       string
	DataDir    string
	SQLitePath string
}

// loadRuntimeDefaults reads the shared config under home and overlays
// THOUGHTFLOW_* variables from getenv.
func loadRuntimeDefaults(home string, getenv func(string) string) (runtimeDefaults, error) {
	cfg, err := thoughtflowconfig.LoadOrInit(home)
	if err != nil {
		return runtimeDefaults{}, err
	}
	cfg = thoughtflowconfig.ApplyEnv(cfg, getenv)

	return runtimeDefaults{
		Addr:       thoughtflowconfig.ListenAddr(cfg.ServerURL),
		DataDir:    cfg.Backend.DataDir,
		SQLitePath: cfg.Backend.SQLitePath,
	}, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	defaults := runtimeDefaults{
		Addr:       thoughtflowconfig.DefaultListenAddr,
		DataDir:    filepath.Join(os.TempDir(), "thoughtflow-data"),
		SQLitePath: filepath.Join(os.TempDir(), "thoughtflow-data", "projection.db"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		loaded, err := loadRuntimeDefaults(home, os.Getenv)
		if err != nil {
			logger.Warn("load config failed; using built-in defaults", "error", err)
		} else {
			defaults = loaded
		}
	}

	var (
		addr       string
		dataDir    string
		sqlitePath string
	)
	flag.StringVar(&addr, "addr", defaults.Addr, "server listen address")
	flag.StringVar(&dataDir, "data-dir", defaults.DataDir, "directory holding the markdown source-of-truth cards")
	flag.StringVar(&sqlitePath, "sqlite-path", defaults.SQLitePath, "sqlite projection database path")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		logger.Error("create sqlite parent dir failed", "error", err)
		os.Exit(1)
	}

	app, err := server.New(server.Options{DataDir: dataDir, SQLitePath: sqlitePath, Logger: logger})
	if err != nil {
		logger.Error("init server failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close server failed", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("starting thoughtflow server", "addr", addr, "data_dir", dataDir, "sqlite_path", sqlitePath)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())

	if err := httpServer.Close(); err != nil {
		logger.Error("http server close failed", "error", err)
	}
	logger.Info("server stopped")
}
