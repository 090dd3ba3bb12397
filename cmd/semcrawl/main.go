// Package main provides the semcrawl binary entry point.
// Semcrawl assembles catalogue resources from the triple store into search
// documents and keeps the search index in step with the catalogue.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/semcrawl/config"
	"github.com/c360studio/semcrawl/indexing"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semcrawl"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 30 * time.Second

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Resource graph crawler and search indexer",
		Long: `Semcrawl assembles catalogue resources from the triple store into
search documents and keeps the search index in step with the catalogue.

It provides:
- An HTTP trigger for full reindex runs and single index requests
- Queue drains for reindex units and index requests
- One-off commands to resolve a resource or print its document`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the HTTP triggers and drain the queues",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), flags)
			},
		},
		&cobra.Command{
			Use:   "reindex",
			Short: "Run a full reindex and wait for it to finish",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runReindex(cmd.Context(), flags)
			},
		},
		&cobra.Command{
			Use:   "resolve <pid-uri>",
			Short: "Print the draft/published pair of a resource",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runResolve(cmd.Context(), flags, args[0], cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "document <pid-uri>",
			Short: "Print the index documents of a resource without publishing them",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDocument(cmd.Context(), flags, args[0], cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func newLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger
}

func setup(ctx context.Context, flags globalFlags, opts ...appOption) (*App, *slog.Logger, error) {
	logger := newLogger(flags.logLevel)

	cfg, err := config.NewLoader(logger).Load(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	app, err := NewApp(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	return app, logger, nil
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

func serve(parent context.Context, flags globalFlags) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	app, logger, err := setup(ctx, flags)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	var wg sync.WaitGroup
	if app.cfg.Queues.IsEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Drainer.Run(ctx, app.cfg.Queues.DrainInterval)
		}()
	}

	handler := app.Handler(ctx)
	mux := http.NewServeMux()
	handler.RegisterHTTPHandlers("/api/", mux)

	server := &http.Server{
		Addr:              app.cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Semcrawl ready", "version", Version, "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}

	cancel()
	handler.Wait()
	wg.Wait()

	logger.Info("Semcrawl stopped")
	return nil
}

func runReindex(parent context.Context, flags globalFlags) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	app, logger, err := setup(ctx, flags)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	var wg sync.WaitGroup
	drainCtx, stopDrain := context.WithCancel(ctx)
	if app.cfg.Queues.IsEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Drainer.Run(drainCtx, app.cfg.Queues.DrainInterval)
		}()
	}

	started, err := app.Coordinator.StartReindex(ctx)
	stopDrain()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	if !started {
		logger.Info("Reindex already running")
	}
	return nil
}

func runResolve(parent context.Context, flags globalFlags, pidURI string, out io.Writer) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	app, _, err := setup(ctx, flags)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return resolveTo(ctx, app, pidURI, out)
}

func resolveTo(ctx context.Context, app *App, pidURI string, out io.Writer) error {
	cto, err := app.Resolver.Resolve(ctx, pidURI)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", pidURI, err)
	}
	return writeJSON(out, cto)
}

func runDocument(parent context.Context, flags globalFlags, pidURI string, out io.Writer) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	recorder := &indexing.Recorder{}
	app, _, err := setup(ctx, flags, withPublisher(recorder))
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return documentTo(ctx, app, recorder, pidURI, out)
}

// documentTo assembles the documents of pidURI without cascades and writes
// what the publisher recorded.
func documentTo(ctx context.Context, app *App, recorder *indexing.Recorder, pidURI string, out io.Writer) error {
	if err := app.Indexer.IndexPID(ctx, indexing.ActionReindex, pidURI, indexing.ReindexOptions()); err != nil {
		return fmt.Errorf("assemble %s: %w", pidURI, err)
	}
	return writeJSON(out, recorder.Documents())
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
