package domain

import "time"

// WorkItem is one pending queue entry: a page URL to turn into a saved file.
type WorkItem struct {
	SourceURL string
	Line      int // 1-based line number in the queue file
}

// PageMetadata holds the fields scraped from a vault page.
// MediaID is required; Title is best-effort and may be empty.
type PageMetadata struct {
	MediaID string
	Title   string
}

// DownloadTarget is the fully resolved payload URL for one item.
// ResolvedURL is always absolute and carries the media id as a query parameter.
type DownloadTarget struct {
	ResolvedURL string
}

// TransferResult describes one finished payload transfer.
type TransferResult struct {
	HTTPStatus    int
	BytesWritten  int64
	FinalFilename string
}

// HistoryRecord is one line of the append-only success log.
type HistoryRecord struct {
	Timestamp time.Time
	Title     string
	SourceURL string
}

// Outcome classifies a processed work item.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSuccess
	OutcomeRateLimited
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "failed"
	}
}

// RunTotals aggregates per-item outcomes for the whole run.
type RunTotals struct {
	Attempted   int
	Succeeded   int
	RateLimited int
	Failed      int
}
