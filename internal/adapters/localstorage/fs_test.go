package localstorage

import (
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNew_RemovesStaleInflightFile(t *testing.T) {
	dir := t.TempDir()
	workDir := filepath.Join(dir, workDirName)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stale := filepath.Join(workDir, "inflight.part")
	if err := os.WriteFile(stale, []byte("half a payload"), 0644); err != nil {
		t.Fatalf("write stale: %v", err)
	}

	if _, err := New(dir); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale in-flight file survived")
	}
}

func TestPublish_RenamesIntoOutputDir(t *testing.T) {
	s := newStore(t)
	if err := os.WriteFile(s.TempPath(), []byte("payload"), 0644); err != nil {
		t.Fatalf("write temp: %v", err)
	}

	path, err := s.Publish("Star Courier 2.zip")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if filepath.Dir(path) != s.OutputDir() {
		t.Errorf("published outside output dir: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "payload" {
		t.Errorf("published content = %q, err = %v", data, err)
	}
	if _, err := os.Stat(s.TempPath()); !os.IsNotExist(err) {
		t.Errorf("temp file still present after publish")
	}
}

func TestPublish_CollisionGetsSuffix(t *testing.T) {
	s := newStore(t)
	existing := filepath.Join(s.OutputDir(), "game.zip")
	if err := os.WriteFile(existing, []byte("old"), 0644); err != nil {
		t.Fatalf("write existing: %v", err)
	}
	if err := os.WriteFile(s.TempPath(), []byte("new"), 0644); err != nil {
		t.Fatalf("write temp: %v", err)
	}

	path, err := s.Publish("game.zip")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if filepath.Base(path) != "game (1).zip" {
		t.Errorf("published name = %q, want %q", filepath.Base(path), "game (1).zip")
	}
	old, _ := os.ReadFile(existing)
	if string(old) != "old" {
		t.Errorf("existing file was overwritten")
	}
}

func TestDiscard_MissingIsFine(t *testing.T) {
	s := newStore(t)
	if err := s.Discard(); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if err := os.WriteFile(s.TempPath(), []byte("x"), 0644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if err := s.Discard(); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if _, err := os.Stat(s.TempPath()); !os.IsNotExist(err) {
		t.Errorf("temp file still present after discard")
	}
}
