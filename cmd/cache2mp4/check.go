package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cache2mp4/internal/config"
	"cache2mp4/internal/failures"
	"cache2mp4/internal/manifest"
)

// runCheck lists manifest entries with no file in the output directory.
func runCheck(cmd *cobra.Command, opts runOptions) error {
	if strings.TrimSpace(opts.output) == "" {
		return failures.Wrap(failures.ErrConfiguration, "cli", "check", "output option requires an argument", nil)
	}
	dir, err := config.ExpandPath(opts.output)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}

	out := cmd.OutOrStdout()
	report, err := manifest.Audit(dir)
	if errors.Is(err, manifest.ErrNotFound) {
		fmt.Fprintf(out, "Error: m3u8 file not found in %s\n", opts.output)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "missing file found from m3u8 file:")
	for _, name := range report.Missing {
		fmt.Fprintln(out, name)
	}

	if isTerminal(out) {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Manifest", "Required", "Present", "Missing"},
			[][]string{{
				report.Manifest,
				strconv.Itoa(len(report.Required)),
				strconv.Itoa(report.Present()),
				strconv.Itoa(len(report.Missing)),
			}},
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
		))
	}
	return nil
}
