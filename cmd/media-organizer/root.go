package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"media-organizer/internal/config"
	"media-organizer/internal/fsx"
	"media-organizer/internal/logging"
	"media-organizer/internal/organizer"
)

type rootOptions struct {
	configPath string
	dryRun     bool
	manifest   bool
	cleanup    bool
	verbose    bool
	utc        bool
}

func newRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:   "media-organizer [source_dir] [target_dir]",
		Short: "Organize photos and videos into dated folders",
		Long: `Moves every photo and video under source_dir into target_dir/YYYY/YYYY-MM-DD/.

The date comes from, in order: embedded EXIF or video metadata, the
photoTakenTime/creationTime of a matching sidecar JSON file, the file's
creation time, and finally its modification time. Sidecars travel with
their media file.

source_dir defaults to the current directory and target_dir to
___organized_media in the current directory.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			return runOrganize(cmd, cfg, opts.verbose)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "Show what would be moved without moving anything")
	flags.BoolVarP(&opts.manifest, "manifest", "m", false, "Record organized files in the target's manifest CSV")
	flags.BoolVar(&opts.cleanup, "cleanup", false, "Remove source folders left empty after organizing")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every decision")
	flags.BoolVar(&opts.utc, "utc", false, "Compute date folders in UTC instead of local time")

	rootCmd.AddCommand(newConfigCommand())
	return rootCmd
}

// loadConfig reads the config file if one was given, then applies positional
// arguments and any flags set on the command line.
func loadConfig(cmd *cobra.Command, opts rootOptions, args []string) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.ReadFromFile(opts.configPath); err != nil {
			return nil, err
		}
	}

	if len(args) > 0 {
		cfg.SourceDir = args[0]
	}
	if len(args) > 1 {
		cfg.TargetDir = args[1]
	}

	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun = opts.dryRun
	}
	if flags.Changed("manifest") {
		cfg.Manifest = opts.manifest
	}
	if flags.Changed("cleanup") {
		cfg.CleanupEmptyDirs = opts.cleanup
	}
	if flags.Changed("utc") {
		cfg.UTC = opts.utc
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runOrganize(cmd *cobra.Command, cfg *config.Config, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	runID := logging.NewRunID()
	logger := slog.New(logging.NewHandler(cmd.ErrOrStderr(), logging.Options{Level: level, RunID: runID}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.DryRun {
		source, err := filepath.Abs(cfg.SourceDir)
		if err != nil {
			return fmt.Errorf("resolve source dir: %w", err)
		}
		lock, err := fsx.LockDir(source)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("cannot release lock", "path", lock.Path(), "error", err)
			}
		}()
	}

	org, err := organizer.New(cfg, logger)
	if err != nil {
		return err
	}
	stats, err := org.Run(ctx)
	if stats != nil {
		fmt.Fprint(cmd.OutOrStdout(), renderReport(stats, cfg))
	}
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("interrupted, stopping early")
			return context.Canceled
		}
		return err
	}
	return nil
}
