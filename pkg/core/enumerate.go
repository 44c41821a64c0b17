package core

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"syncopy/pkg/exclude"
)

// errStop unwinds a walk when the consumer stops pulling entries.
var errStop = errors.New("enumeration stopped")

// Enumerate lazily yields the archive entries for inputs in order.
//
// Each input is named relative to its own parent directory. Excluded
// directories are pruned, so their descendants are never visited. The
// sequence ends after the first error, which is yielded with a zero Entry.
func Enumerate(inputs []string, m *exclude.Matcher) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, input := range inputs {
			if !enumerateInput(input, m, yield) {
				return
			}
		}
	}
}

// enumerateInput walks one top-level input. It returns false once the
// sequence must end.
func enumerateInput(input string, m *exclude.Matcher, yield func(Entry, error) bool) bool {
	abs, err := filepath.Abs(input)
	if err != nil {
		yield(Entry{}, &PathError{Path: input, Err: err})
		return false
	}

	kind, err := statKind(abs)
	if err != nil {
		yield(Entry{}, &PathError{Path: input, Err: err})
		return false
	}

	container := filepath.Dir(abs)
	name, err := relName(container, abs)
	if err != nil {
		yield(Entry{}, &PathError{Path: input, Err: err})
		return false
	}

	if m.Match(name, kind == KindDir) {
		return true
	}

	if kind == KindFile {
		return yield(Entry{Name: name, Kind: KindFile, Source: abs}, nil)
	}

	if name != "" && !yield(Entry{Name: name, Kind: KindDir, Source: abs}, nil) {
		return false
	}

	// Walk the resolved directory so a symlinked input is descended too.
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		yield(Entry{}, &PathError{Path: input, Err: err})
		return false
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &PathError{Path: path, Err: err}
		}
		if path == root {
			return nil
		}

		kind := KindFile
		if d.IsDir() {
			kind = KindDir
		} else if !d.Type().IsRegular() {
			// Symlinks are archived as what they point at and never descended.
			if kind, err = statKind(path); err != nil {
				return &PathError{Path: path, Err: err}
			}
		}

		rel, err := relName(root, path)
		if err != nil {
			return &PathError{Path: path, Err: err}
		}
		rel = joinName(name, rel)

		if m.Match(rel, kind == KindDir) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !yield(Entry{Name: rel, Kind: kind, Source: path}, nil) {
			return errStop
		}
		return nil
	})

	if walkErr == nil {
		return true
	}
	if !errors.Is(walkErr, errStop) {
		yield(Entry{}, walkErr)
	}
	return false
}

// statKind resolves path, following symlinks, to a file or directory kind.
func statKind(path string) (EntryKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	switch {
	case info.IsDir():
		return KindDir, nil
	case info.Mode().IsRegular():
		return KindFile, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, info.Mode().Type())
	}
}

// relName returns path relative to base in slash form. The base itself maps
// to the empty name.
func relName(base, path string) (string, error) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", fmt.Errorf("relative name: %w", err)
	}
	if rel == "." {
		return "", nil
	}

	return filepath.ToSlash(rel), nil
}

func joinName(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "/" + child
}
