package reconcile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cache2mp4/internal/chromecache"
	"cache2mp4/internal/failures"
	"cache2mp4/internal/logging"
	"cache2mp4/internal/manifest"
	"cache2mp4/internal/outdir"
)

// phase is either unknownPhase or knownPhase.
type phase interface {
	known() bool
}

// unknownPhase is in effect until a manifest exists in the output directory.
type unknownPhase struct {
	saved map[string]struct{}
}

func (unknownPhase) known() bool { return false }

// knownPhase tracks what the manifest still needs. The set only shrinks.
type knownPhase struct {
	remaining map[string]struct{}
}

func (knownPhase) known() bool { return true }

// Session is the extraction state for one output directory.
type Session struct {
	dir      string
	query    string
	manifest string
	phase    phase
	logger   *slog.Logger
}

// Pass summarizes one snapshot applied to a session.
type Pass struct {
	Entries  int
	Matched  int
	Copied   int
	Failed   int
	Bytes    int64
	Promoted bool
}

// NewSession starts a session from the directory's current listing. When
// the listing already contains a manifest, its targets are computed right
// away so a resumed run only fetches what is missing.
func NewSession(dir, query string, listing outdir.Listing, logger *slog.Logger) (*Session, error) {
	saved := make(map[string]struct{}, len(listing.Saved))
	for name := range listing.Saved {
		saved[name] = struct{}{}
	}
	s := &Session{
		dir:    dir,
		query:  query,
		phase:  unknownPhase{saved: saved},
		logger: logging.NewComponentLogger(logger, "reconcile"),
	}
	if listing.Manifest == "" {
		return s, nil
	}
	s.manifest = listing.Manifest
	if err := s.promote(); err != nil {
		return nil, failures.Wrap(failures.ErrConfiguration, "reconcile", "resume", "read existing manifest", err)
	}
	return s, nil
}

// Done reports whether the manifest is known and nothing remains.
func (s *Session) Done() bool {
	known, ok := s.phase.(knownPhase)
	return ok && len(known.remaining) == 0
}

// Known reports whether the manifest has been read.
func (s *Session) Known() bool { return s.phase.known() }

// Manifest returns the captured manifest filename, or empty.
func (s *Session) Manifest() string { return s.manifest }

// Dir returns the output directory.
func (s *Session) Dir() string { return s.dir }

// Remaining returns the outstanding filenames sorted, or nil while the
// manifest is unknown.
func (s *Session) Remaining() []string {
	known, ok := s.phase.(knownPhase)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(known.remaining))
	for name := range known.remaining {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Apply matches every entry of snap against the session and copies the
// accepted ones. Copy failures are logged and counted; the only error
// returned is an unreadable manifest during promotion.
func (s *Session) Apply(snap Snapshot) (Pass, error) {
	entries := snap.Entries()
	pass := Pass{Entries: len(entries)}

	for _, entry := range entries {
		if entry.Key.Kind != chromecache.KeyLocal || entry.Empty() {
			continue
		}
		if !strings.Contains(entry.Key.Value, s.query) {
			continue
		}
		name := entry.Key.Filename()
		if name == "" {
			continue
		}

		switch p := s.phase.(type) {
		case knownPhase:
			if _, ok := p.remaining[name]; !ok {
				continue
			}
		case unknownPhase:
			if _, ok := p.saved[name]; ok {
				continue
			}
		}

		pass.Matched++
		n, err := snap.CopyData(entry, s.dir)
		if err != nil {
			pass.Failed++
			logging.WarnWithContext(s.logger, "segment copy failed; will retry on next pass", "segment_copy_failed",
				logging.String(logging.FieldFilename, name),
				logging.Error(failures.Wrap(failures.ErrTransient, "reconcile", "copy", name, err)),
				logging.String(logging.FieldErrorHint, "check free space and permissions of the output directory"),
				logging.String(logging.FieldImpact, "segment stays outstanding"),
			)
			continue
		}
		pass.Copied++
		pass.Bytes += n
		s.record(name)
		s.logger.Debug("segment saved", logging.String(logging.FieldFilename, name), logging.Int64("bytes", n))
	}

	if !s.phase.known() && s.manifest != "" {
		if err := s.promote(); err != nil {
			return pass, fmt.Errorf("promote manifest %s: %w", s.manifest, err)
		}
		pass.Promoted = true
	}
	return pass, nil
}

func (s *Session) record(name string) {
	switch p := s.phase.(type) {
	case knownPhase:
		delete(p.remaining, name)
	case unknownPhase:
		p.saved[name] = struct{}{}
		if s.manifest == "" && outdir.IsManifest(name) {
			s.manifest = name
			s.logger.Info("manifest captured", logging.String(logging.FieldFilename, name))
		}
	}
}

// promote reads the captured manifest and switches to the known phase.
func (s *Session) promote() error {
	unknown, ok := s.phase.(unknownPhase)
	if !ok {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, s.manifest))
	if err != nil {
		return err
	}
	remaining := manifest.Targets(string(data), unknown.saved)
	s.phase = knownPhase{remaining: remaining}
	s.logger.Info("manifest targets established",
		logging.String(logging.FieldFilename, s.manifest),
		logging.Int("remaining", len(remaining)),
	)
	return nil
}
