package queuefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vaultdl/internal/core/domain"
)

// ErrQueueFileMissing indicates the queue file does not exist.
// This is fatal: the run aborts before processing anything.
var ErrQueueFileMissing = errors.New("queue file missing")

// ErrLineNotFound indicates MarkComplete could not find the item's line,
// e.g. after a concurrent manual edit.
var ErrLineNotFound = errors.New("queue line not found")

// Queue manages the URL list file. The file is read once at load time;
// completion is recorded by rewriting the consumed line into a comment, so a
// re-run against the same file skips already-delivered entries.
type Queue struct {
	path  string
	items []domain.WorkItem
}

// Load reads the queue file and parses it into work items. Blank lines and
// lines whose first non-space character is '#' are skipped.
func Load(path string) (*Queue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrQueueFileMissing, path)
		}
		return nil, fmt.Errorf("failed to read queue file: %w", err)
	}

	q := &Queue{path: path}
	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		q.items = append(q.items, domain.WorkItem{
			SourceURL: trimmed,
			Line:      i + 1,
		})
	}
	return q, nil
}

// Items returns the pending work items in file order.
func (q *Queue) Items() []domain.WorkItem {
	return q.items
}

// MarkComplete rewrites the first pending line whose content matches the
// item's URL into a commented-out form, leaving every other line byte-for-byte
// untouched. Matching is by exact content rather than line index so the queue
// tolerates manual edits between load and completion. The rewrite goes through
// a sibling temp file and a rename, so the queue file is never left truncated.
func (q *Queue) MarkComplete(item domain.WorkItem) error {
	data, err := os.ReadFile(q.path)
	if err != nil {
		return fmt.Errorf("failed to re-read queue file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	found := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if trimmed == item.SourceURL {
			lines[i] = "# " + line
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrLineNotFound, item.SourceURL)
	}

	return atomicWrite(q.path, strings.Join(lines, "\n"))
}

func atomicWrite(path, content string) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write queue temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace queue file: %w", err)
	}
	return nil
}
