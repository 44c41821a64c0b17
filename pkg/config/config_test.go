package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"syncopy/pkg/core"
)

const sampleConfig = `
[backups]
include = ["~/docs", "/etc/hosts"]
exclude = ["*.tmp", "!keep.tmp"]
output_directory = "/tmp/backups"
output_suffix = "laptop"
compression = "lz4"
level = 3

[secrets]
disk_token = "from-config"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	if cfg.Backups.Include[0] != filepath.Join(home, "docs") || cfg.Backups.Include[1] != "/etc/hosts" {
		t.Errorf("Include = %q", cfg.Backups.Include)
	}
	if len(cfg.Backups.Exclude) != 2 || cfg.Backups.OutputSuffix != "laptop" || cfg.Backups.Level != 3 {
		t.Errorf("unexpected backups section: %+v", cfg.Backups)
	}
	if codec, err := cfg.Codec(); err != nil || codec != core.LZ4 {
		t.Errorf("Codec() = %v, %v", codec, err)
	}
	if cfg.Secrets.DiskToken != "from-config" {
		t.Errorf("DiskToken = %q", cfg.Secrets.DiskToken)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"unknown key":   "[backups]\ninclude = [\"a\"]\nincluded = [\"b\"]\n",
		"no include":    "[backups]\nexclude = [\"a\"]\n",
		"blank include": "[backups]\ninclude = [\" \"]\n",
		"bad codec":     "[backups]\ninclude = [\"a\"]\ncompression = \"zip\"\n",
		"bad level":     "[backups]\ninclude = [\"a\"]\nlevel = 11\n",
		"low level":     "[backups]\ninclude = [\"a\"]\nlevel = -2\n",
		"syntax":        "[backups\ninclude = 1\n",
	} {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: Parse must fail", name)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for data, want := range map[string]int{
		"[backups]\ninclude = [\"a\"]\n":             core.DefaultLevel,
		"[backups]\ninclude = [\"a\"]\nlevel = 0\n":  0,
		"[backups]\ninclude = [\"a\"]\nlevel = -1\n": core.DefaultLevel,
	} {
		cfg, err := Parse([]byte(data))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", data, err)
		}
		if cfg.Backups.Level != want {
			t.Errorf("Parse(%q) level = %d, want %d", data, cfg.Backups.Level, want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load(missing) = %v, want os.ErrNotExist", err)
	}
}

func TestResolveToken(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, TokenFile)
	if err := os.WriteFile(tokenFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("Failed to write token file: %v", err)
	}

	env := map[string]string{}
	getenv := func(k string) string { return env[k] }
	cfg := &Config{Secrets: Secrets{DiskToken: "from-config"}}

	env[TokenEnv] = "from-env"
	if got, _ := ResolveToken(cfg, getenv, tokenFile); got != "from-env" {
		t.Errorf("env token: got %q", got)
	}

	delete(env, TokenEnv)
	if got, _ := ResolveToken(cfg, getenv, tokenFile); got != "from-config" {
		t.Errorf("config token: got %q", got)
	}

	if got, _ := ResolveToken(&Config{}, getenv, tokenFile); got != "from-file" {
		t.Errorf("file token: got %q", got)
	}

	_, err := ResolveToken(nil, getenv, filepath.Join(dir, "absent"))
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("missing token error = %v, want ErrNoToken", err)
	}
	if !strings.Contains(err.Error(), TokenEnv) {
		t.Errorf("error should mention %s: %v", TokenEnv, err)
	}
}
