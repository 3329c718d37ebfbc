package reconcile_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cache2mp4/internal/failures"
	"cache2mp4/internal/logging"
	"cache2mp4/internal/outdir"
	"cache2mp4/internal/reconcile"
	"cache2mp4/internal/testsupport"
)

const query = "video.example"

func key(name string) string {
	return testsupport.SegmentKey("https://video.example", "https://cdn.example/hls/"+name)
}

func newSession(t *testing.T, dir string) *reconcile.Session {
	t.Helper()
	listing, err := outdir.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	s, err := reconcile.NewSession(dir, query, listing, logging.NewNop())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func apply(t *testing.T, s *reconcile.Session, src *scriptedSource) reconcile.Pass {
	t.Helper()
	snap, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	defer snap.Close()
	pass, err := s.Apply(snap)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return pass
}

func TestUnknownPhaseCopiesAndPromotesSamePass(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, dir)
	if s.Known() || s.Done() {
		t.Fatal("fresh session should be unknown")
	}

	src := &scriptedSource{steps: []step{{entries: []fakeEntry{
		{key: key("index.m3u8"), body: "#EXTM3U\n#EXTINF:6,\nseg0.ts\n#EXTINF:6,\nseg1.ts\n"},
		{key: key("seg0.ts"), body: "zero"},
		{key: "https://elsewhere.example/seg9.ts", body: "other site"},
		{key: key("empty.ts"), body: ""},
		{key: key("long.ts"), body: "long", long: true},
	}}}}

	pass := apply(t, s, src)
	if diff := cmp.Diff([]string{"index.m3u8", "seg0.ts"}, src.copied()); diff != "" {
		t.Fatalf("copied mismatch (-want +got):\n%s", diff)
	}
	if !pass.Promoted || pass.Copied != 2 || pass.Bytes != int64(len("zero"))+int64(len("#EXTM3U\n#EXTINF:6,\nseg0.ts\n#EXTINF:6,\nseg1.ts\n")) {
		t.Fatalf("unexpected pass %+v", pass)
	}
	if s.Manifest() != "index.m3u8" {
		t.Fatalf("manifest = %q", s.Manifest())
	}
	if diff := cmp.Diff([]string{"seg1.ts"}, s.Remaining()); diff != "" {
		t.Fatalf("remaining mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownPhaseSkipsAlreadySaved(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, map[string]string{"seg0.ts": "old"})
	s := newSession(t, dir)

	src := &scriptedSource{steps: []step{{entries: []fakeEntry{
		{key: key("seg0.ts"), body: "new"},
		{key: key("seg1.ts"), body: "one"},
	}}}}
	apply(t, s, src)
	apply(t, s, src)

	if diff := cmp.Diff([]string{"seg1.ts"}, src.copied()); diff != "" {
		t.Fatalf("copied mismatch (-want +got):\n%s", diff)
	}
	if got := testsupport.ReadFile(t, filepath.Join(dir, "seg0.ts")); got != "old" {
		t.Fatalf("saved segment overwritten: %q", got)
	}
	if s.Known() {
		t.Fatal("session promoted without a manifest")
	}
}

func TestFirstManifestWins(t *testing.T) {
	s := newSession(t, t.TempDir())
	src := &scriptedSource{steps: []step{{entries: []fakeEntry{
		{key: key("b.m3u8"), body: "#EXTM3U\nb.ts\n"},
		{key: key("a.m3u8"), body: "#EXTM3U\na.ts\n"},
	}}}}
	apply(t, s, src)
	if s.Manifest() != "b.m3u8" {
		t.Fatalf("manifest = %q, want first seen b.m3u8", s.Manifest())
	}
	if diff := cmp.Diff([]string{"b.ts"}, s.Remaining()); diff != "" {
		t.Fatalf("remaining mismatch (-want +got):\n%s", diff)
	}
}

func TestKnownPhaseCopiesEachTargetOnce(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, map[string]string{
		"index.m3u8": "#EXTM3U\nseg0.ts\nseg1.ts\nseg2.ts\n",
		"seg0.ts":    "zero",
	})
	s := newSession(t, dir)
	if !s.Known() {
		t.Fatal("session with manifest on disk should be known")
	}

	src := &scriptedSource{steps: []step{
		{entries: []fakeEntry{
			{key: key("seg0.ts"), body: "zero"},
			{key: key("seg1.ts"), body: "one"},
			{key: key("extra.ts"), body: "not in manifest"},
		}},
		{entries: []fakeEntry{
			{key: key("seg1.ts"), body: "one"},
			{key: key("seg2.ts"), body: "two"},
		}},
	}}

	prev := len(s.Remaining())
	for i := 0; i < 2; i++ {
		apply(t, s, src)
		if got := len(s.Remaining()); got > prev {
			t.Fatalf("remaining grew from %d to %d", prev, got)
		} else {
			prev = got
		}
	}

	if diff := cmp.Diff([]string{"seg1.ts", "seg2.ts"}, src.copied()); diff != "" {
		t.Fatalf("copied mismatch (-want +got):\n%s", diff)
	}
	if !s.Done() {
		t.Fatalf("session not done, remaining %v", s.Remaining())
	}
}

func TestCopyFailureLeavesTargetOutstanding(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, map[string]string{"index.m3u8": "#EXTM3U\nseg0.ts\n"})
	s := newSession(t, dir)

	entries := []fakeEntry{{key: key("seg0.ts"), body: "zero"}}
	src := &scriptedSource{steps: []step{
		{entries: entries, failOn: []string{"seg0.ts"}},
		{entries: entries},
	}}

	pass := apply(t, s, src)
	if pass.Failed != 1 || s.Done() {
		t.Fatalf("failed copy should leave target outstanding: pass=%+v remaining=%v", pass, s.Remaining())
	}
	apply(t, s, src)
	if !s.Done() {
		t.Fatalf("retry did not drain target set: %v", s.Remaining())
	}
}

func TestResumeWithUnreadableManifest(t *testing.T) {
	dir := t.TempDir()
	listing := outdir.Listing{Saved: map[string]struct{}{"gone.m3u8": {}}, Manifest: "gone.m3u8"}
	_, err := reconcile.NewSession(dir, query, listing, nil)
	if !errors.Is(err, failures.ErrConfiguration) {
		t.Fatalf("NewSession error = %v, want configuration error", err)
	}
}

func TestBlankManifestLinesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, map[string]string{
		"index.m3u8": "#EXTM3U\r\n\r\nseg0.ts\r\n\r\n",
		"seg0.ts":    "zero",
	})
	s := newSession(t, dir)
	if !s.Done() {
		t.Fatalf("expected resumed session to be done, remaining %q", s.Remaining())
	}
}
