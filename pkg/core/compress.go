package core

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

const copyBufferSize = 32 * 1024

// DefaultLevel selects the codec's default compression level.
const DefaultLevel = -1

// lz4Levels maps levels 1-9 onto lz4 compression levels. lz4 cannot store,
// so 0 falls back to the fast mode.
var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

type writerState byte

const (
	stateOpen writerState = iota
	stateFinalized
	stateAborted
)

// Writer streams entries into a compressed tar archive in a single forward
// pass: file, then compressor, then tar container.
type Writer struct {
	path    string
	file    *os.File
	comp    io.WriteCloser
	tw      *tar.Writer
	buf     []byte
	entries int
	state   writerState
}

// Create opens the destination at path and layers the compressor and the tar
// stream over it. DefaultLevel selects the codec default and 0 stores gzip
// data uncompressed.
func Create(path string, codec Codec, level int) (*Writer, error) {
	if level < DefaultLevel || level > 9 {
		return nil, fmt.Errorf("compression level %d out of range -1-9", level)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &IOError{Op: "create", Path: path, Err: err}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}

	comp, err := newCompressor(f, codec, level)
	if err != nil {
		f.Close()
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}

	return &Writer{
		path: path,
		file: f,
		comp: comp,
		tw:   tar.NewWriter(comp),
		buf:  make([]byte, copyBufferSize),
	}, nil
}

// newCompressor wraps w with the streaming compressor for codec.
func newCompressor(w io.Writer, codec Codec, level int) (io.WriteCloser, error) {
	switch codec {
	case Gzip:
		// gzip.DefaultCompression and gzip.NoCompression are -1 and 0.
		return gzip.NewWriterLevel(w, level)
	case LZ4:
		if level == DefaultLevel {
			level = 0
		}
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4Levels[level])); err != nil {
			return nil, fmt.Errorf("configure lz4: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("unknown codec %d", codec)
	}
}

// Path returns the destination path.
func (w *Writer) Path() string { return w.path }

// Entries returns how many entries were appended so far.
func (w *Writer) Entries() int { return w.entries }

// Append writes one entry. Files are streamed with their current contents,
// directories become header-only records.
func (w *Writer) Append(e Entry) error {
	if w.state != stateOpen {
		return ErrWriterClosed
	}

	var err error
	switch e.Kind {
	case KindDir:
		err = w.appendDir(e)
	case KindFile:
		err = w.appendFile(e)
	default:
		err = fmt.Errorf("append %s: unknown entry kind %v", e.Name, e.Kind)
	}
	if err != nil {
		return err
	}

	w.entries++
	return nil
}

func (w *Writer) appendDir(e Entry) error {
	info, err := os.Stat(e.Source)
	if err != nil {
		return &PathError{Path: e.Source, Err: err}
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return &PathError{Path: e.Source, Err: err}
	}
	hdr.Name = e.Name + "/"
	hdr.Typeflag = tar.TypeDir
	hdr.Size = 0

	if err := w.tw.WriteHeader(hdr); err != nil {
		return &IOError{Op: "write", Path: w.path, Err: err}
	}
	return nil
}

func (w *Writer) appendFile(e Entry) error {
	f, err := os.Open(e.Source)
	if err != nil {
		return &PathError{Path: e.Source, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &PathError{Path: e.Source, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &PathError{Path: e.Source, Err: ErrUnsupportedType}
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return &PathError{Path: e.Source, Err: err}
	}
	hdr.Name = e.Name

	if err := w.tw.WriteHeader(hdr); err != nil {
		return &IOError{Op: "write", Path: w.path, Err: err}
	}

	src := &sourceReader{r: io.LimitReader(f, hdr.Size), path: e.Source}
	n, err := io.CopyBuffer(w.tw, src, w.buf)
	if err != nil {
		var pathErr *PathError
		if errors.As(err, &pathErr) {
			return pathErr
		}
		return &IOError{Op: "write", Path: w.path, Err: err}
	}
	if n != hdr.Size {
		// The file shrank after it was stat'ed.
		return &PathError{Path: e.Source, Err: fmt.Errorf("read %d of %d bytes: %w", n, hdr.Size, io.ErrUnexpectedEOF)}
	}

	return nil
}

// Finalize closes the tar stream, the compressor and the file, in that order,
// and returns the size of the finished archive. An archive without entries is
// refused and aborted instead.
func (w *Writer) Finalize() (int64, error) {
	if w.state != stateOpen {
		return 0, ErrWriterClosed
	}
	if w.entries == 0 {
		w.Abort()
		return 0, ErrEmptyResult
	}

	w.state = stateFinalized
	if err := w.tw.Close(); err != nil {
		w.closeFile()
		return 0, &IOError{Op: "finalize", Path: w.path, Err: err}
	}
	if err := w.comp.Close(); err != nil {
		w.closeFile()
		return 0, &IOError{Op: "finalize", Path: w.path, Err: err}
	}
	if err := w.closeFile(); err != nil {
		return 0, &IOError{Op: "finalize", Path: w.path, Err: err}
	}

	info, err := os.Stat(w.path)
	if err != nil {
		return 0, &IOError{Op: "stat", Path: w.path, Err: err}
	}

	return info.Size(), nil
}

// Abort releases the destination without writing the archive trailer. The
// partial file is left for the caller to remove. Safe to call repeatedly.
func (w *Writer) Abort() error {
	if w.state != stateOpen {
		return nil
	}

	w.state = stateAborted
	return w.closeFile()
}

func (w *Writer) closeFile() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	return err
}

// sourceReader tags read failures so they are reported against the input.
type sourceReader struct {
	r    io.Reader
	path string
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		err = &PathError{Path: s.path, Err: err}
	}
	return n, err
}
