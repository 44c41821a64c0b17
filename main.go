package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"syncopy/pkg/backup"
	"syncopy/pkg/config"
	"syncopy/pkg/disk"
	"syncopy/pkg/progress"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

type flags struct {
	quiet      bool
	check      bool
	dryRun     bool
	dirty      bool
	configPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:     "syncopy",
		Short:   "Backup utility tethered with Yandex Disk",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return run(cmd.Context(), f)
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "Do not output logs")
	fs.BoolVarP(&f.check, "check", "c", false, "Only check previous backups")
	fs.BoolVarP(&f.dryRun, "dry-run", "d", false, "Do not upload upon completion")
	fs.BoolVarP(&f.dirty, "dirty", "D", false, "Do not clean upon completion")
	fs.StringVar(&f.configPath, "config", "", "Config file (default: user config dir, then ./config.toml)")

	return cmd
}

func run(ctx context.Context, f flags) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: config.AppName})
	if f.quiet {
		logger.SetLevel(log.WarnLevel)
	}

	logger.Info("Initializing...")
	path := f.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	token, err := config.ResolveToken(cfg, os.Getenv, config.TokenFile)
	if err != nil {
		return err
	}

	opts := backup.Options{
		Config:    cfg,
		CheckOnly: f.check,
		DryRun:    f.dryRun,
		Dirty:     f.dirty,
	}
	if !f.quiet {
		opts.Progress = progress.NewSpinner(os.Stderr, "Packing...")
	}

	client := disk.New(token, disk.WithLogger(logger))
	_, err = backup.Run(ctx, client, logger, opts)
	return err
}
