package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListImagesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	names := []string{"b.png", "a.JPG", "notes.txt", "c.jpeg", "d.gif"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	images, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.JPG"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.jpeg"),
	}
	if len(images) != len(want) {
		t.Fatalf("expected %d images, got %d (%v)", len(want), len(images), images)
	}
	for i := range want {
		if images[i] != want[i] {
			t.Fatalf("image %d: expected %q, got %q", i, want[i], images[i])
		}
	}
}

func TestListImagesMissingDir(t *testing.T) {
	if _, err := ListImages(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.png", "two.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "keep"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	deleted, err := ClearDir(dir)
	if err != nil {
		t.Fatalf("ClearDir: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d", deleted)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		t.Fatalf("expected only the subdirectory to remain, got %v", entries)
	}
}

func TestClearDirMissing(t *testing.T) {
	deleted, err := ClearDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("ClearDir: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected 0 deletions, got %d", deleted)
	}
}

func TestTruncateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.jsonl")
	if err := os.WriteFile(path, []byte("{\"question\":\"q\"}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := TruncateFile(path); err != nil {
		t.Fatalf("TruncateFile: %v", err)
	}
	if size := FileSize(path); size != 0 {
		t.Fatalf("expected empty file, got %d bytes", size)
	}
	if err := TruncateFile(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Fatalf("TruncateFile missing: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandHome("~/questions/img")
	if err != nil {
		t.Fatalf("ExpandHome: %v", err)
	}
	if got != filepath.Join(home, "questions/img") {
		t.Fatalf("unexpected expansion: %q", got)
	}
	got, err = ExpandHome("/abs/path")
	if err != nil {
		t.Fatalf("ExpandHome: %v", err)
	}
	if got != "/abs/path" {
		t.Fatalf("absolute path should be untouched, got %q", got)
	}
}
