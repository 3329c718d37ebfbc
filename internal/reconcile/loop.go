package reconcile

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cache2mp4/internal/clock"
	"cache2mp4/internal/failures"
	"cache2mp4/internal/logging"
)

// RunOptions configures Run.
type RunOptions struct {
	// Interval is the wait before every snapshot. Zero disables waiting.
	Interval time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Run applies snapshots from src to s until s is done or ctx is cancelled.
// A session that is already done returns immediately.
func Run(ctx context.Context, s *Session, src Source, opts RunOptions) error {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := logging.NewComponentLogger(opts.Logger, "reconcile")

	started := clk.Now()
	iteration := 0
	var total Pass
	for !s.Done() {
		if err := wait(ctx, clk, opts.Interval); err != nil {
			return err
		}
		iteration++

		snap, err := src.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.WarnWithContext(logger, "cache snapshot failed; skipping pass", "snapshot_failed",
				logging.Int("iteration", iteration),
				logging.Error(failures.Wrap(failures.ErrTransient, "reconcile", "snapshot", "", err)),
				logging.String(logging.FieldErrorHint, "the browser may be rewriting its cache index; check cache.dir if this persists"),
				logging.String(logging.FieldImpact, "no segments copied this pass"),
			)
			continue
		}

		pass, err := s.Apply(snap)
		if cerr := snap.Close(); cerr != nil {
			logger.Debug("close snapshot", logging.Error(cerr))
		}
		if err != nil {
			return err
		}
		total.Matched += pass.Matched
		total.Copied += pass.Copied
		total.Failed += pass.Failed
		total.Bytes += pass.Bytes

		attrs := []logging.Attr{
			logging.Int("iteration", iteration),
			logging.Int("entries", pass.Entries),
			logging.Int("copied", pass.Copied),
			logging.Int("failed", pass.Failed),
			logging.String("bytes", humanize.Bytes(uint64(pass.Bytes))),
		}
		if s.Known() {
			attrs = append(attrs, logging.Int("remaining", len(s.Remaining())))
		}
		logger.Info("pass complete", logging.Args(attrs...)...)
	}

	logger.Info("all segments extracted",
		logging.String(logging.FieldFilename, s.Manifest()),
		logging.Int("passes", iteration),
		logging.Int("copied", total.Copied),
		logging.String("bytes", humanize.Bytes(uint64(total.Bytes))),
		logging.String("elapsed", strings.TrimSpace(humanize.RelTime(started, clk.Now(), "", ""))),
	)
	return nil
}

func wait(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}
