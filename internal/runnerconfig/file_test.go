package runnerconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileOverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runner.yaml")
	writeFile(t, path, "depth: 4\ntag: TEST_fromfile\n")

	base := Defaults()
	base.Breadth = 9

	cfg, err := LoadFile(path, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Depth != 4 {
		t.Fatalf("expected depth overridden to 4, got %d", cfg.Depth)
	}
	if cfg.Tag != "TEST_fromfile" {
		t.Fatalf("expected tag overridden, got %q", cfg.Tag)
	}
	if cfg.Breadth != 9 {
		t.Fatalf("breadth was not present in the file, expected it preserved, got %d", cfg.Breadth)
	}
}

func TestLoadFileRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runner.yaml")
	writeFile(t, path, "depth: 4\nbogusField: true\n")

	if _, err := LoadFile(path, Defaults()); err == nil {
		t.Fatalf("expected an error for an unknown field")
	}
}

func TestLoadFileMissingPath(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), Defaults()); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}
