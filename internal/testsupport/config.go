package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"cache2mp4/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Cache.Dir = filepath.Join(base, "cache")
	cfgVal.Poll.IntervalSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCacheDir overrides the browser cache location on the test config.
func WithCacheDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Dir = dir
	}
}

// WithStubbedFFmpeg installs a stub ffmpeg that records its arguments and
// exits with code, and points the config at it.
func WithStubbedFFmpeg(code int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mux.FFmpegBinary = StubBinary(b.t, filepath.Join(b.baseDir, "bin"), "ffmpeg", code)
	}
}

// StubBinary writes an executable shell script named name into dir. The
// script appends its arguments, one per line, to <name>.args next to itself
// and exits with code. It returns the script path.
func StubBinary(t testing.TB, dir, name string, code int) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	script := "#!/bin/sh\nfor arg in \"$@\"; do printf '%s\\n' \"$arg\" >> \"$0.args\"; done\nexit " + strconv.Itoa(code) + "\n"
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// StubArgs returns the arguments recorded by a StubBinary script.
func StubArgs(t testing.TB, stub string) []string {
	t.Helper()

	data, err := os.ReadFile(stub + ".args")
	if err != nil {
		t.Fatalf("read stub args: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "path-bin")
		for _, name := range names {
			StubBinary(b.t, binDir, name, 0)
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
