package chromecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"cache2mp4/internal/logging"
)

const (
	defaultAttempts      = 3
	defaultRetryInterval = 50 * time.Millisecond
)

// Parser reads snapshots of a blockfile cache directory. A Parser holds no
// open files between snapshots, so the browser may keep writing freely.
type Parser struct {
	root          string
	attempts      int
	retryInterval time.Duration
	decode        bool
	logger        *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithAttempts sets how many times an index read is attempted before the
// snapshot fails. Values below one are treated as one.
func WithAttempts(n int) Option {
	return func(p *Parser) {
		if n < 1 {
			n = 1
		}
		p.attempts = n
	}
}

// WithRetryInterval sets the pause between index read attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(p *Parser) {
		if d >= 0 {
			p.retryInterval = d
		}
	}
}

// WithContentDecoding makes CopyData undo gzip, deflate and zstd
// Content-Encoding recorded in the stored response headers.
func WithContentDecoding(enabled bool) Option {
	return func(p *Parser) { p.decode = enabled }
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser returns a parser for the cache rooted at root.
func NewParser(root string, opts ...Option) *Parser {
	p := &Parser{
		root:          root,
		attempts:      defaultAttempts,
		retryInterval: defaultRetryInterval,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the cache directory.
func (p *Parser) Root() string { return p.root }

// Snapshot reads the index and every reachable entry record. A missing cache
// directory fails immediately; a torn or short index is retried.
func (p *Parser) Snapshot(ctx context.Context) (*Snapshot, error) {
	var policy backoff.BackOff = backoff.NewConstantBackOff(p.retryInterval)
	policy = backoff.WithMaxRetries(policy, uint64(p.attempts-1))
	policy = backoff.WithContext(policy, ctx)

	attempt := 0
	snap, err := backoff.RetryNotifyWithData(func() (*Snapshot, error) {
		attempt++
		snap, err := p.read()
		if err != nil && errors.Is(err, fs.ErrNotExist) {
			return nil, backoff.Permanent(err)
		}
		return snap, err
	}, policy, func(err error, wait time.Duration) {
		p.logger.Debug("cache index read failed; retrying",
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
			logging.Error(err),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", p.root, err)
	}
	return snap, nil
}

func (p *Parser) read() (*Snapshot, error) {
	index, err := os.ReadFile(filepath.Join(p.root, indexFileName))
	if err != nil {
		return nil, err
	}
	hdr, err := parseIndexHeader(index)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{files: newBlockFiles(p.root), decode: p.decode}
	snap.load(index, hdr)
	return snap, nil
}
