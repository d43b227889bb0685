package localstorage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// workDirName is the stable subdirectory under the output directory that
// holds process-scoped scratch state: the in-flight download and the
// transient cookie snapshot.
const workDirName = ".vaultdl"

// Store owns the output directory. Payloads are streamed into a temporary
// in-flight file and only renamed to their final name on confirmed success,
// so the output directory never shows partial files under real names.
type Store struct {
	outDir  string
	workDir string
}

// New creates a Store rooted at outDir, creating the directory tree if
// needed. A leftover in-flight file from a killed run is removed; it is
// untrusted and would be overwritten anyway.
func New(outDir string) (*Store, error) {
	workDir := filepath.Join(outDir, workDirName)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", workDir, err)
	}
	s := &Store{outDir: outDir, workDir: workDir}
	_ = os.Remove(s.TempPath())
	return s, nil
}

// OutputDir returns the directory final files land in.
func (s *Store) OutputDir() string {
	return s.outDir
}

// TempPath returns the process-scoped in-flight file path.
func (s *Store) TempPath() string {
	return filepath.Join(s.workDir, "inflight.part")
}

// CookieSnapshotPath returns where the transient cookie store lives.
func (s *Store) CookieSnapshotPath() string {
	return filepath.Join(s.workDir, "cookies.json")
}

// Publish renames the in-flight file to finalName inside the output
// directory. When a file of that name already exists, a " (n)" suffix is
// inserted before the extension rather than overwriting it.
func (s *Store) Publish(finalName string) (string, error) {
	dest := filepath.Join(s.outDir, finalName)
	dest = uniquePath(dest)
	if err := os.Rename(s.TempPath(), dest); err != nil {
		return "", fmt.Errorf("failed to publish %s: %w", finalName, err)
	}
	return dest, nil
}

// Discard removes the in-flight file. Missing is fine.
func (s *Store) Discard() error {
	if err := os.Remove(s.TempPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func uniquePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}
