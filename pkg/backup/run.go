package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"syncopy/pkg/config"
	"syncopy/pkg/core"
	"syncopy/pkg/disk"
	"syncopy/pkg/progress"
)

// Disk is the remote storage a run talks to. *disk.Client satisfies it.
type Disk interface {
	ListDirectory(ctx context.Context, dir string) ([]disk.Item, error)
	UploadLink(ctx context.Context, name string) (disk.UploadOperation, error)
	Upload(ctx context.Context, href, filePath string) error
}

// Options controls one run.
type Options struct {
	Config *config.Config

	CheckOnly bool // only report previous backups
	DryRun    bool // pack but do not upload
	Dirty     bool // keep the local archive

	Now      func() time.Time // defaults to time.Now
	Progress progress.Reporter
}

// Report summarizes what a run did.
type Report struct {
	Total    int
	Latest   *Backup
	Archive  string // local archive path, empty in check-only runs
	Size     int64
	Uploaded bool
	Removed  bool
}

// Run executes the backup workflow. Progress messages go to logger at info
// level; the final summary lines are printed regardless of level.
func Run(ctx context.Context, d Disk, logger *log.Logger, opts Options) (*Report, error) {
	if opts.Config == nil {
		return nil, errors.New("backup: no config")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cfg := opts.Config.Backups
	started := now().UTC()
	report := &Report{}

	logger.Info("Getting previous backups...")
	items, err := d.ListDirectory(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list previous backups: %w", err)
	}

	backups := Filter(items, cfg.OutputSuffix)
	report.Total = len(backups)

	latest := "never"
	if b, ok := Latest(backups); ok {
		report.Latest = &b
		latest = fmt.Sprintf("%s (%s ago)", b.CreatedAt.Format(DisplayLayout), Delta(started, b.CreatedAt))
	}
	logger.Info("Previous backups", "total", report.Total, "latest", latest)

	if !opts.CheckOnly {
		if err := pack(ctx, d, logger, opts, started, report); err != nil {
			return report, err
		}
	}

	logger.Print(fmt.Sprintf("Done in %s", Delta(now().UTC(), started)))
	return report, nil
}

func pack(ctx context.Context, d Disk, logger *log.Logger, opts Options, started time.Time, report *Report) error {
	cfg := opts.Config.Backups

	codec, err := opts.Config.Codec()
	if err != nil {
		return err
	}

	name := Name(cfg.OutputSuffix, started, codec)
	output := filepath.Join(cfg.OutputDirectory, name)

	logger.Info("Packing", "file", output)
	size, err := core.Pack(core.Options{
		Inputs:   cfg.Include,
		Output:   output,
		Exclude:  cfg.Exclude,
		Codec:    codec,
		Level:    cfg.Level,
		Progress: opts.Progress,
		Logger:   logger,
	})
	if err != nil {
		if rmErr := os.Remove(output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("Failed to remove partial archive", "file", output, "err", rmErr)
		}
		return fmt.Errorf("pack failed: %w", err)
	}
	report.Archive = output
	report.Size = size
	logger.Info("Packed", "size", humanize.Bytes(uint64(size)))

	if err := ctx.Err(); err != nil {
		return err
	}

	if !opts.DryRun {
		logger.Info("Preparing upload...")
		op, err := d.UploadLink(ctx, name)
		if err != nil {
			return fmt.Errorf("prepare upload: %w", err)
		}

		logger.Info("Uploading", "href", op.Href)
		if err := d.Upload(ctx, op.Href, output); err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		report.Uploaded = true
		logger.Print("Upload done")
	}

	if !opts.Dirty {
		logger.Info("Cleaning...")
		if err := os.Remove(output); err != nil {
			return fmt.Errorf("remove local archive: %w", err)
		}
		report.Removed = true
	}
	return nil
}
