package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cache2mp4/internal/chromecache"
	"cache2mp4/internal/clock"
	"cache2mp4/internal/config"
	"cache2mp4/internal/failures"
	"cache2mp4/internal/logging"
	"cache2mp4/internal/mux"
	"cache2mp4/internal/outdir"
	"cache2mp4/internal/preflight"
	"cache2mp4/internal/reconcile"
)

// runExtract polls the cache until every segment is on disk, then muxes.
func runExtract(cmd *cobra.Command, ctx *commandContext, opts runOptions) error {
	if strings.TrimSpace(opts.query) == "" {
		return failures.Wrap(failures.ErrConfiguration, "cli", "extract", "query option requires an argument", nil)
	}
	if strings.TrimSpace(opts.output) == "" {
		return failures.Wrap(failures.ErrConfiguration, "cli", "extract", "output option requires an argument", nil)
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(opts.cacheDir) != "" {
		if cfg.Cache.Dir, err = config.ExpandPath(strings.TrimSpace(opts.cacheDir)); err != nil {
			return fmt.Errorf("resolve cache directory: %w", err)
		}
	}
	if err := cfg.RequireCacheDir(); err != nil {
		return failures.Wrap(failures.ErrConfiguration, "cli", "extract", "", err)
	}

	dir, err := config.ExpandPath(opts.output)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logger, _, err := runLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger = logger.With(logging.String(logging.FieldOutputDir, dir))

	lock, err := outdir.Acquire(dir)
	if err != nil {
		return failures.Wrap(failures.ErrConfiguration, "cli", "extract", "lock output directory", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Debug("release output lock", logging.Error(err))
		}
	}()

	reportPreflight(logger, cfg, dir)

	listing, err := outdir.Scan(dir)
	if err != nil {
		return failures.Wrap(failures.ErrConfiguration, "cli", "extract", "", err)
	}
	session, err := reconcile.NewSession(dir, opts.query, listing, logger)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parser := chromecache.NewParser(cfg.Cache.Dir,
		chromecache.WithAttempts(cfg.Poll.SnapshotAttempts),
		chromecache.WithContentDecoding(cfg.Cache.DecodeContent),
		chromecache.WithLogger(logging.NewComponentLogger(logger, "chromecache")),
	)
	interval := cfg.PollInterval()
	if opts.skipStop {
		interval = 0
	}
	logger.Info("extraction started",
		logging.String("cache_dir", cfg.Cache.Dir),
		logging.String("query", opts.query),
		logging.Int("already_saved", len(listing.Saved)),
		logging.Duration("interval", interval),
	)
	if err := reconcile.Run(runCtx, session, reconcile.FromParser(parser), reconcile.RunOptions{
		Interval: interval,
		Clock:    clock.Real(),
		Logger:   logger,
	}); err != nil {
		return err
	}

	return muxSession(runCtx, cmd, cfg, session, logger)
}

func muxSession(ctx context.Context, cmd *cobra.Command, cfg *config.Config, session *reconcile.Session, logger *slog.Logger) error {
	muxer := mux.New(cfg.FFmpegBinary(), cfg.Mux.ContainerExt, logger)
	muxer.WithCommandRunner(mux.StreamingRunner(cmd.OutOrStdout(), cmd.ErrOrStderr()))

	result, err := muxer.Mux(ctx, session.Dir(), session.Manifest())
	if result.ExitCode >= 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "ffmpeg finished with code %d\n", result.ExitCode)
	}
	return err
}

func reportPreflight(logger *slog.Logger, cfg *config.Config, dir string) {
	for _, result := range preflight.Failed(preflight.RunAll(cfg, dir)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "verify cache.dir and mux.ffmpeg_binary"),
			logging.String(logging.FieldImpact, "extraction continues but may not complete"),
		)
	}
}
