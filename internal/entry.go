// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/starford/postmigrate/internal/batch"
	"github.com/starford/postmigrate/internal/ledger"
	"github.com/starford/postmigrate/internal/report"
	"github.com/starford/postmigrate/internal/storage"
	"github.com/starford/postmigrate/internal/watch"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return app, nil
}

func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// Run migrates every post matched by the configured pattern, prints the
// aggregate line, and, in watch mode, keeps migrating changed posts until
// interrupted.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg.App, app.stderr)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("pattern", cfg.Migrate.Pattern),
		slog.String("results_dir", cfg.Migrate.ResultsDir),
		slog.Bool("no_folders", cfg.Migrate.NoFolders),
		slog.Bool("keep_dates", cfg.Migrate.KeepDates),
		slog.Bool("no_url_replace", cfg.Migrate.NoURLReplace),
		slog.Bool("no_slug", cfg.Migrate.NoSlug),
		slog.String("collisions", cfg.Migrate.Collisions),
		slog.String("log_level", cfg.App.LogLevel.String()))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := batch.Discover(cfg.Migrate.Pattern, cfg.Migrate.ResultsDir)
	if err != nil {
		return fmt.Errorf("discover sources: %w", err)
	}

	store, err := storage.Open(cfg.Migrate.ResultsDir, cfg.Migrate.CleanDir)
	if err != nil {
		return fmt.Errorf("prepare output: %w", err)
	}
	logger.Debug("Output root ready", slog.String("root", store.Root()), slog.Int("sources", len(files)))

	var db *ledger.DB
	if cfg.Ledger.Enabled() {
		db, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return fmt.Errorf("init ledger: %w", err)
		}
		defer db.Close()
	}

	runner := batch.NewRunner(store, cfg.Migrate.Options, logger,
		batch.WithWorkers(cfg.Migrate.Workers),
		batch.WithCollisionPolicy(cfg.Migrate.CollisionPolicy()))

	summary := runner.Run(ctx, files)
	summary.Pattern = cfg.Migrate.Pattern

	if db != nil {
		if err := db.Record(&summary); err != nil {
			logger.Warn("ledger: record run failed", slog.String("error", err.Error()))
		}
	}
	if cfg.Migrate.Manifest != "" {
		if err := report.WriteManifest(cfg.Migrate.Manifest, summary); err != nil {
			logger.Warn("manifest: write failed", slog.String("error", err.Error()))
		}
	}

	fmt.Fprintln(app.stdout, report.SummaryLine(summary))

	if !cfg.Migrate.Watch || ctx.Err() != nil {
		return nil
	}
	return watchSources(ctx, cfg.Migrate.Pattern, store.Root(), runner, db, summary.RunID, logger)
}

// watchSources re-migrates sources as they change and records each outcome
// against the run that started the session.
func watchSources(ctx context.Context, pattern, outputRoot string, runner *batch.Runner, db *ledger.DB, runID int64, logger *slog.Logger) error {
	matcher := batch.NewMatcher(pattern, outputRoot)

	err := watch.Watch(ctx, matcher.Root(), matcher, logger, func(path string) {
		res := runner.MigrateFile(path)
		if db != nil && runID != 0 {
			if err := db.RecordFile(runID, res); err != nil {
				logger.Warn("ledger: record file failed", slog.String("path", path), slog.String("error", err.Error()))
			}
		}
	})
	if err != nil {
		logger.Error("Watcher error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Watch stopped")
	return nil
}

// History prints the most recent run stored in the configured ledger. Without
// a ledger it falls back to the configured manifest.
func History(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	if !cfg.Ledger.Enabled() {
		if cfg.Migrate.Manifest == "" {
			return fmt.Errorf("history: no ledger or manifest configured")
		}
		s, err := report.ReadManifest(cfg.Migrate.Manifest)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		report.PrintRun(app.stdout, s)
		return nil
	}

	db, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	last, err := db.LastRun()
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	report.PrintRun(app.stdout, *last)
	return nil
}
