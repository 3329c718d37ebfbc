package mux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"cache2mp4/internal/failures"
	"cache2mp4/internal/logging"
)

// CommandRunner runs name with args and returns its exit code. The error is
// reserved for failures to start or wait for the process.
type CommandRunner func(ctx context.Context, name string, args ...string) (int, error)

// Result reports one ffmpeg invocation.
type Result struct {
	Input    string
	Output   string
	ExitCode int
}

// Muxer remuxes HLS playlists with ffmpeg.
type Muxer struct {
	binary string
	ext    string
	logger *slog.Logger
	run    CommandRunner
}

// New constructs a muxer for the given ffmpeg binary and container extension.
// ffmpeg's output goes to the process's stdout and stderr.
func New(binary, ext string, logger *slog.Logger) *Muxer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "mp4"
	}
	return &Muxer{
		binary: binary,
		ext:    ext,
		logger: logging.NewComponentLogger(logger, "mux"),
		run:    StreamingRunner(os.Stdout, os.Stderr),
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r CommandRunner) {
	if m != nil && r != nil {
		m.run = r
	}
}

// Binary returns the ffmpeg executable the muxer invokes.
func (m *Muxer) Binary() string { return m.binary }

// OutputPath is the container written for dir: a sibling of dir named after
// it with its extension replaced by ext.
func OutputPath(dir, ext string) string {
	clean := filepath.Clean(dir)
	base := filepath.Base(clean)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		base = stem
	}
	return filepath.Join(filepath.Dir(clean), base+"."+ext)
}

// BuildArgs returns the ffmpeg arguments copying input's streams into output.
func BuildArgs(input, output string) []string {
	return []string{
		"-i", input,
		"-movflags", "faststart",
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		output,
	}
}

// Mux runs ffmpeg once on the manifest inside dir and waits for it. A
// non-zero exit is reported as an external tool error alongside the result.
func (m *Muxer) Mux(ctx context.Context, dir, manifest string) (Result, error) {
	if m == nil {
		return Result{}, fmt.Errorf("muxer not initialized")
	}
	if strings.TrimSpace(manifest) == "" {
		return Result{}, fmt.Errorf("manifest name is required")
	}

	result := Result{
		Input:    filepath.Join(dir, manifest),
		Output:   OutputPath(dir, m.ext),
		ExitCode: -1,
	}
	m.logger.Info("starting ffmpeg",
		logging.String("input", result.Input),
		logging.String("output", result.Output),
	)

	code, err := m.run(ctx, m.binary, BuildArgs(result.Input, result.Output)...)
	if err != nil {
		return result, failures.Wrap(failures.ErrExternalTool, "mux", "ffmpeg", "start "+m.binary, err)
	}
	result.ExitCode = code
	if code != 0 {
		return result, failures.Wrap(failures.ErrExternalTool, "mux", "ffmpeg", fmt.Sprintf("exited with code %d", code), nil)
	}
	m.logger.Info("container written", logging.String("output", result.Output))
	return result, nil
}

// StreamingRunner returns a CommandRunner that attaches the child's output
// to stdout and stderr.
func StreamingRunner(stdout, stderr io.Writer) CommandRunner {
	return func(ctx context.Context, name string, args ...string) (int, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		err := cmd.Run()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		if err != nil {
			return -1, err
		}
		return 0, nil
	}
}
