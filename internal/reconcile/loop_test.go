package reconcile_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"cache2mp4/internal/chromecache"
	"cache2mp4/internal/clock"
	"cache2mp4/internal/logging"
	"cache2mp4/internal/reconcile"
	"cache2mp4/internal/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunConvergesDespiteSnapshotFailures(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, dir)

	src := &scriptedSource{steps: []step{
		{err: errors.New("torn index")},
		{entries: []fakeEntry{{key: key("index.m3u8"), body: "#EXTM3U\nseg0.ts\nseg1.ts\n"}, {key: key("seg0.ts"), body: "0"}}},
		{err: errors.New("torn index")},
		{entries: []fakeEntry{{key: key("seg1.ts"), body: "1"}}},
	}}
	clk := clock.Fake(time.Unix(0, 0))

	err := reconcile.Run(context.Background(), s, src, reconcile.RunOptions{
		Interval: 3 * time.Minute,
		Clock:    clk,
		Logger:   logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.calls != 4 {
		t.Fatalf("snapshot calls = %d, want 4", src.calls)
	}
	if src.closed != 2 {
		t.Fatalf("closed snapshots = %d, want 2", src.closed)
	}
	want := []time.Duration{3 * time.Minute, 3 * time.Minute, 3 * time.Minute, 3 * time.Minute}
	if diff := cmp.Diff(want, clk.Waits()); diff != "" {
		t.Fatalf("waits mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"index.m3u8", "seg0.ts", "seg1.ts"}, src.copied()); diff != "" {
		t.Fatalf("copied mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSkipsWaitWhenIntervalIsZero(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, map[string]string{"index.m3u8": "#EXTM3U\nseg0.ts\n"})
	s := newSession(t, dir)

	src := &scriptedSource{steps: []step{{entries: []fakeEntry{{key: key("seg0.ts"), body: "0"}}}}}
	clk := clock.Fake(time.Unix(0, 0))
	if err := reconcile.Run(context.Background(), s, src, reconcile.RunOptions{Clock: clk}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(clk.Waits()) != 0 {
		t.Fatalf("unexpected waits %v", clk.Waits())
	}
}

func TestRunReturnsImmediatelyWhenResumedComplete(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, map[string]string{
		"index.m3u8": "#EXTM3U\nseg0.ts\n",
		"seg0.ts":    "0",
	})
	s := newSession(t, dir)

	src := &scriptedSource{steps: []step{{err: errors.New("must not be called")}}}
	if err := reconcile.Run(context.Background(), s, src, reconcile.RunOptions{Interval: time.Hour}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.calls != 0 {
		t.Fatalf("snapshot called %d times", src.calls)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	s := newSession(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	src := reconcile.SourceFunc(func(context.Context) (reconcile.Snapshot, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return nil, errors.New("cache unavailable")
	})

	err := reconcile.Run(ctx, s, src, reconcile.RunOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if calls != 3 {
		t.Fatalf("snapshot calls = %d, want 3", calls)
	}
}

func TestRunCancelledDuringWait(t *testing.T) {
	s := newSession(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedSource{steps: []step{{err: errors.New("unused")}}}
	err := reconcile.Run(ctx, s, src, reconcile.RunOptions{Interval: time.Hour, Clock: clock.Real()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestRunExtractsFromBlockfileCache(t *testing.T) {
	cacheDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "show-episode")
	testsupport.WriteFiles(t, out, nil)

	playlist := "#EXTM3U\n#EXTINF:6.0,\nseg0.ts\n#EXTINF:6.0,\nseg1.ts\n#EXT-X-ENDLIST\n"
	testsupport.WriteBlockfileCache(t, cacheDir, []testsupport.CacheEntry{
		{Key: key("index.m3u8"), Body: []byte(playlist)},
		{Key: key("seg0.ts"), Body: []byte("segment zero")},
		{Key: testsupport.SegmentKey("https://ads.example", "https://ads.example/ad.ts"), Body: []byte("ad")},
	})

	parser := chromecache.NewParser(cacheDir)
	base := reconcile.FromParser(parser)
	calls := 0
	src := reconcile.SourceFunc(func(ctx context.Context) (reconcile.Snapshot, error) {
		calls++
		if calls == 2 {
			testsupport.WriteBlockfileCache(t, cacheDir, []testsupport.CacheEntry{
				{Key: key("seg1.ts"), Body: []byte("segment one")},
			})
		}
		return base.Snapshot(ctx)
	})

	s := newSession(t, out)
	if err := reconcile.Run(context.Background(), s, src, reconcile.RunOptions{Clock: clock.Fake(time.Unix(0, 0))}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Fatalf("snapshot calls = %d, want 2", calls)
	}
	if s.Manifest() != "index.m3u8" {
		t.Fatalf("manifest = %q", s.Manifest())
	}
	for name, want := range map[string]string{
		"index.m3u8": playlist,
		"seg0.ts":    "segment zero",
		"seg1.ts":    "segment one",
	} {
		if got := testsupport.ReadFile(t, filepath.Join(out, name)); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}
