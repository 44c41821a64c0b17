package core

import (
	"fmt"
	"strings"
)

// EntryKind distinguishes between file and directory entries
type EntryKind byte

const (
	KindFile EntryKind = 0 // Regular file, streamed with its contents
	KindDir  EntryKind = 1 // Directory, header only
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return fmt.Sprintf("EntryKind(%d)", byte(k))
	}
}

// Entry is one named unit written into the archive
type Entry struct {
	Name   string    // Slash-separated name relative to the input's container
	Kind   EntryKind // File or directory
	Source string    // Absolute path on disk
}

// Codec selects the compression layer under the tar stream
type Codec byte

const (
	Gzip Codec = iota // gzip, the default
	LZ4               // lz4 frame format
)

// ParseCodec maps a config name to a Codec. The empty string selects Gzip.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gzip", "gz":
		return Gzip, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// Extension returns the file name extension for archives of this codec
func (c Codec) Extension() string {
	if c == LZ4 {
		return ".tar.lz4"
	}
	return ".tar.gz"
}

func (c Codec) String() string {
	if c == LZ4 {
		return "lz4"
	}
	return "gzip"
}
