package core

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// archived is one entry read back from a packed archive.
type archived struct {
	Name    string
	Dir     bool
	Content string
}

// writeTree creates files (and directories for names ending in "/") under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("Failed to create directory %s: %v", path, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

// readArchive decodes every entry of the archive at path.
func readArchive(t *testing.T, path string, codec Codec) []archived {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer f.Close()

	var r io.Reader
	switch codec {
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			t.Fatalf("Failed to open gzip stream: %v", err)
		}
		defer zr.Close()
		r = zr
	case LZ4:
		r = lz4.NewReader(f)
	}

	var out []archived
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read tar header: %v", err)
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", hdr.Name, err)
		}

		out = append(out, archived{
			Name:    hdr.Name,
			Dir:     hdr.Typeflag == tar.TypeDir,
			Content: string(data),
		})
	}

	return out
}

func names(entries []archived) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
