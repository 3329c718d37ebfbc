package reconcile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"cache2mp4/internal/chromecache"
	"cache2mp4/internal/reconcile"
)

type fakeEntry struct {
	key  string
	body string
	long bool
}

type fakeSnapshot struct {
	entries []chromecache.Entry
	bodies  map[string]string
	failOn  map[string]bool
	copies  *[]string
	closed  *int
}

func (f *fakeSnapshot) Entries() []chromecache.Entry { return f.entries }

func (f *fakeSnapshot) CopyData(e chromecache.Entry, dir string) (int64, error) {
	name := e.Key.Filename()
	if f.failOn[name] {
		return 0, errors.New("disk full")
	}
	body := f.bodies[e.Key.Value]
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		return 0, err
	}
	*f.copies = append(*f.copies, name)
	return int64(len(body)), nil
}

func (f *fakeSnapshot) Close() error {
	*f.closed++
	return nil
}

// scriptedSource replays one step per Snapshot call and repeats the last
// step once the script is exhausted.
type scriptedSource struct {
	mu     sync.Mutex
	steps  []step
	calls  int
	copies []string
	closed int
}

type step struct {
	entries []fakeEntry
	err     error
	failOn  []string
}

func (s *scriptedSource) Snapshot(context.Context) (reconcile.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.calls
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	s.calls++
	st := s.steps[idx]
	if st.err != nil {
		return nil, st.err
	}

	snap := &fakeSnapshot{
		bodies: make(map[string]string),
		failOn: make(map[string]bool),
		copies: &s.copies,
		closed: &s.closed,
	}
	for _, e := range st.entries {
		kind := chromecache.KeyLocal
		if e.long {
			kind = chromecache.KeyLong
		}
		snap.entries = append(snap.entries, chromecache.Entry{Key: chromecache.Key{Kind: kind, Value: e.key}, BodySize: len(e.body)})
		snap.bodies[e.key] = e.body
	}
	for _, name := range st.failOn {
		snap.failOn[name] = true
	}
	return snap, nil
}

func (s *scriptedSource) copied() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.copies...)
}
