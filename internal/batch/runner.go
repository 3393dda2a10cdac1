// Package batch runs the migration over a list of source posts: each file is
// planned, rewritten, and written independently, and the outcomes are
// collected into a run summary.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/postmigrate/internal/apperr"
	"github.com/starford/postmigrate/internal/checksum"
	"github.com/starford/postmigrate/internal/migrate"
	"github.com/starford/postmigrate/internal/models"
	"github.com/starford/postmigrate/internal/parser"
	"github.com/starford/postmigrate/internal/storage"
)

// Runner migrates source posts into a storage.Provider.
type Runner struct {
	opts    migrate.Options
	store   storage.Provider
	logger  *slog.Logger
	workers int
	policy  CollisionPolicy
	claims  *claims
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of files processed concurrently. Values
// below 1 fall back to the number of CPUs.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithCollisionPolicy sets how output path collisions are handled.
func WithCollisionPolicy(p CollisionPolicy) RunnerOption {
	return func(r *Runner) {
		r.policy = p
	}
}

// NewRunner creates a Runner writing into store. opts.ResultsDir must name
// the same directory as store's root.
func NewRunner(store storage.Provider, opts migrate.Options, logger *slog.Logger, ropts ...RunnerOption) *Runner {
	r := &Runner{
		opts:   opts,
		store:  store,
		logger: logger,
		policy: CollisionOverwrite,
		claims: newClaims(),
	}
	for _, o := range ropts {
		o(r)
	}
	if r.workers < 1 {
		r.workers = runtime.NumCPU()
	}
	return r
}

// Run migrates files with bounded parallelism and returns the aggregate.
// A failing file never aborts the batch. Once ctx is cancelled, files not
// yet started are recorded as failed.
func (r *Runner) Run(ctx context.Context, files []string) models.RunSummary {
	summary := models.RunSummary{
		ResultsDir: r.opts.ResultsDir,
		StartedAt:  time.Now().UTC(),
	}

	// Claim outputs in input order first so that, under the error policy, the
	// lexically first source wins regardless of scheduling.
	for _, path := range files {
		if dest, err := migrate.PlanDestination(filepath.Base(path), r.opts); err == nil {
			r.claims.claim(dest.OutputPath, path)
		}
	}

	r.logger.Info("Saving generated files",
		slog.Int("files", len(files)),
		slog.String("results_dir", r.opts.ResultsDir),
		slog.Int("workers", r.workers))

	results := make([]models.FileResult, len(files))
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = r.failed(models.FileResult{Source: path}, fmt.Errorf("interrupted: %w", err))
				return nil
			}
			results[i] = r.MigrateFile(path)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		summary.Add(res)
	}
	summary.FinishedAt = time.Now().UTC()
	return summary
}

// MigrateFile plans, rewrites, and writes a single source post. Errors are
// logged and reported in the result, never returned.
func (r *Runner) MigrateFile(path string) models.FileResult {
	res := models.FileResult{Source: path}
	r.logger.Debug("Processing", slog.String("path", path))

	dest, err := migrate.PlanDestination(filepath.Base(path), r.opts)
	if err != nil {
		return r.failed(res, err)
	}
	res.Output = dest.OutputPath
	res.Slug = dest.Slug
	res.Timestamp = dest.Timestamp
	r.logger.Debug("New file name", slog.String("path", path), slog.String("name", dest.RetainedName))

	if owner, ok := r.claims.claim(dest.OutputPath, path); !ok {
		if r.policy == CollisionError {
			return r.failed(res, fmt.Errorf("%w: %s by %s", apperr.ErrCollision, dest.OutputPath, owner))
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("output %s also produced by %s; last writer wins", dest.OutputPath, owner))
	}

	rel, err := r.store.Rel(dest.OutputPath)
	if err != nil {
		return r.failed(res, err)
	}
	if err := r.store.EnsureDir(filepath.Dir(rel)); err != nil {
		return r.failed(res, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return r.failed(res, fmt.Errorf("read source: %w", err))
	}
	content := string(data)

	// Inspect the block from the same marker Rewrite replaces, so leading
	// bytes such as a BOM do not hide existing keys.
	if at := migrate.MarkerIndex(content); at >= 0 {
		parsed := parser.Parse(data[at:])
		res.Title = parsed.Title
		keys := []string{"date"}
		if !r.opts.NoSlug {
			keys = append(keys, "slug")
		}
		for _, k := range parsed.Keys(keys...) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("frontmatter already has %s; output carries it twice", k))
		}
	} else {
		res.Title = parser.Parse(data).Title
		res.Warnings = append(res.Warnings, "no frontmatter marker; header not injected")
	}

	out := migrate.Rewrite(content, dest, r.opts)
	if err := r.store.Write(rel, []byte(out)); err != nil {
		return r.failed(res, err)
	}

	res.Checksum = checksum.Sum([]byte(out))
	res.Status = models.StatusConverted
	for _, w := range res.Warnings {
		r.logger.Warn("Migration warning", slog.String("path", path), slog.String("warning", w))
	}
	r.logger.Info("Processed successfully",
		slog.String("path", path),
		slog.String("output", dest.OutputPath))
	return res
}

func (r *Runner) failed(res models.FileResult, err error) models.FileResult {
	res.Status = models.StatusFailed
	res.Error = err.Error()
	r.logger.Error("Failed to process",
		slog.String("path", res.Source),
		slog.String("error", err.Error()))
	return res
}
