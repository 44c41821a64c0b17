package core

import (
	"os"

	"github.com/charmbracelet/log"

	"syncopy/pkg/exclude"
	"syncopy/pkg/progress"
)

// Options configures one packing run. Everything the engine needs is passed
// here; nothing is looked up from the environment.
type Options struct {
	Inputs  []string // Files and directories, packed in this order
	Output  string   // Destination archive path
	Exclude []string // gitignore-style patterns
	Codec   Codec
	Level   int // DefaultLevel selects the codec default, 0 stores gzip data

	// Progress receives per-entry ticks and a final done signal. Nil
	// disables progress reporting entirely.
	Progress progress.Reporter
	// Logger receives per-entry debug records when set.
	Logger *log.Logger
}

// Pack packs the inputs into a compressed tar archive at opts.Output and
// returns the archive size.
//
// Failures are typed: *exclude.PatternError for invalid patterns, *PathError
// for unreadable inputs, *IOError for destination failures and ErrEmptyResult
// when exclusion left nothing to pack. A failed run may leave a partial file
// at opts.Output; removing it is up to the caller.
func Pack(opts Options) (size int64, err error) {
	if opts.Progress != nil {
		defer func() { opts.Progress.Done(err == nil) }()
	}

	matcher, err := exclude.New(opts.Exclude)
	if err != nil {
		return 0, err
	}

	if len(opts.Inputs) == 0 {
		return 0, ErrEmptyResult
	}

	// Every input must exist before the destination is touched.
	for _, input := range opts.Inputs {
		if _, err := os.Stat(input); err != nil {
			return 0, &PathError{Path: input, Err: err}
		}
	}

	w, err := Create(opts.Output, opts.Codec, opts.Level)
	if err != nil {
		return 0, err
	}
	defer w.Abort()

	for entry, err := range Enumerate(opts.Inputs, matcher) {
		if err != nil {
			return 0, err
		}

		if err := w.Append(entry); err != nil {
			return 0, err
		}

		if opts.Logger != nil {
			opts.Logger.Debug("packed", "name", entry.Name, "kind", entry.Kind)
		}
		if opts.Progress != nil {
			opts.Progress.Tick(w.Entries(), entry.Name)
		}
	}

	if w.Entries() == 0 {
		return 0, ErrEmptyResult
	}

	return w.Finalize()
}
