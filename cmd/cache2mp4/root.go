package main

import (
	"github.com/spf13/cobra"
)

type runOptions struct {
	query      string
	output     string
	cacheDir   string
	skipStop   bool
	checkFiles bool
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var opts runOptions

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "cache2mp4 [-q|--query QUERY] [-o|--output OUTPUT]",
		Short: "Extract a video stream from the browser disk cache",
		Long: "cache2mp4 polls the browser's disk cache for the HLS segments of a stream,\n" +
			"copies every segment its playlist lists into OUTPUT, then muxes them into\n" +
			"OUTPUT.mp4 with ffmpeg. Use --check-files to list segments still missing.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) || (!cmd.HasParent() && cmd.Flags().NFlag() == 0) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().NFlag() == 0 {
				return cmd.Help()
			}
			if opts.checkFiles {
				return runCheck(cmd, opts)
			}
			return runExtract(cmd, ctx, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.query, "query", "q", "", "query string to search video from cache")
	flags.StringVarP(&opts.output, "output", "o", "", "output dir to save video")
	flags.BoolVarP(&opts.skipStop, "skip-stop", "s", false, "disable wait while loop")
	flags.BoolVarP(&opts.checkFiles, "check-files", "c", false, "check if all file downloaded")
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "browser cache directory (overrides cache.dir)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Configuration file path")

	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
