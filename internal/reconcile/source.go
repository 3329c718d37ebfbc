package reconcile

import (
	"context"

	"cache2mp4/internal/chromecache"
)

// Snapshot is one read of the browser cache.
type Snapshot interface {
	Entries() []chromecache.Entry
	CopyData(entry chromecache.Entry, dir string) (int64, error)
	Close() error
}

// Source produces snapshots on demand.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Snapshot, error)

func (f SourceFunc) Snapshot(ctx context.Context) (Snapshot, error) { return f(ctx) }

// FromParser exposes a cache parser as a Source.
func FromParser(p *chromecache.Parser) Source {
	return SourceFunc(func(ctx context.Context) (Snapshot, error) {
		snap, err := p.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return snap, nil
	})
}
