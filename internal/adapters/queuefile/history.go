package queuefile

import (
	"fmt"
	"os"
	"time"

	"vaultdl/internal/core/domain"
)

// History appends success records to a text log, one line per delivery:
//
//	<timestamp> | <title> | <sourceUrl>
//
// The log is append-only; nothing ever rewrites it.
type History struct {
	path string
}

// NewHistory creates a history appender for the given file path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Append writes one record to the log.
func (h *History) Append(rec domain.HistoryRecord) error {
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s | %s | %s\n",
		rec.Timestamp.UTC().Format(time.RFC3339), rec.Title, rec.SourceURL)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}
