package thoughtflow

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/simonjohansson/thoughtflow/internal/server"
	"github.com/simonjohansson/thoughtflow/pkg/thoughtflowconfig"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	Addr       string
	DataDir    string
	SQLitePath string
}

var runServeFunc = runServe

func newServeCommand(cfg *Config) *cobra.Command {
	var flags serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ThoughtFlow API server.",
		Long:  "Runs the API server with markdown card storage and a sqlite projection. The projection is rebuilt from markdown at startup. Unset flags fall back to the config file and --server-url.",
		Example: strings.TrimSpace(`thoughtflow serve
thoughtflow serve --addr 127.0.0.1:8090
thoughtflow --server-url http://127.0.0.1:9010 serve
thoughtflow serve --data-dir /tmp/thoughtflow --sqlite-path /tmp/thoughtflow/projection.db`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := serveOptions{
				Addr:       flagOr(cmd, "addr", flags.Addr, thoughtflowconfig.ListenAddr(cfg.ServerURL)),
				DataDir:    flagOr(cmd, "data-dir", flags.DataDir, cfg.DataDir),
				SQLitePath: flagOr(cmd, "sqlite-path", flags.SQLitePath, cfg.SQLitePath),
			}
			if err := opts.validate(); err != nil {
				return err
			}
			return runServeFunc(opts)
		},
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", "", "server listen address (derived from --server-url when unset)")
	cmd.Flags().StringVar(&flags.DataDir, "data-dir", "", "directory holding the markdown source-of-truth cards")
	cmd.Flags().StringVar(&flags.SQLitePath, "sqlite-path", "", "sqlite projection database path")
	return cmd
}

func flagOr(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(fallback)
}

func (o serveOptions) validate() error {
	for _, field := range []struct{ flag, value string }{
		{"addr", o.Addr},
		{"data-dir", o.DataDir},
		{"sqlite-path", o.SQLitePath},
	} {
		if field.value == "" {
			return fmt.Errorf("--%s cannot be empty", field.flag)
		}
	}
	return nil
}

func runServe(opts serveOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return serveUntilDone(ctx, opts, logger)
}

// serveUntilDone runs the API server until ctx is cancelled, then drains
// in-flight requests for up to shutdownTimeout.
func serveUntilDone(ctx context.Context, opts serveOptions, logger *slog.Logger) error {
	for _, dir := range []string{opts.DataDir, filepath.Dir(opts.SQLitePath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s failed: %w", dir, err)
		}
	}

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen failed: %w", err)
	}

	app, err := server.New(server.Options{DataDir: opts.DataDir, SQLitePath: opts.SQLitePath, Logger: logger})
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("init server failed: %w", err)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Error("close server failed", "error", closeErr)
		}
	}()

	httpServer := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("thoughtflow server listening", "addr", listener.Addr().String(), "data_dir", opts.DataDir, "sqlite_path", opts.SQLitePath)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve failed: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
