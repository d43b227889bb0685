package ports

import (
	"context"

	"vaultdl/internal/core/domain"
)

// Queue defines the contract for the work queue backing file.
type Queue interface {
	// Items returns the pending work items in file order.
	// Blank and comment lines never appear here.
	Items() []domain.WorkItem

	// MarkComplete durably rewrites the item's source line into a
	// commented-out form so a later run skips it.
	MarkComplete(item domain.WorkItem) error
}

// Site defines the contract for talking to the vault host: fetching pages,
// scraping the download fields, and resolving the payload URL. All requests
// share one cookie jar for the lifetime of the run.
type Site interface {
	// FetchPage retrieves the raw page text for a work item's URL.
	// The HTTP status is returned alongside the body so the caller can
	// classify rate limiting on the page visit itself.
	FetchPage(ctx context.Context, pageURL string) (body string, status int, err error)

	// Extract pulls the media id, title and optional download-form action
	// out of raw page text. A missing media id is an error.
	Extract(page string) (meta domain.PageMetadata, formAction string, err error)

	// Resolve normalizes a form action path into an absolute download URL
	// carrying the media id as a query parameter.
	Resolve(formAction, mediaID string) domain.DownloadTarget

	// ProbeSize asks the host for the payload's Content-Length.
	// The value is advisory; 0 means indeterminate.
	ProbeSize(ctx context.Context, rawURL, referer string) (int64, error)

	// SuggestedFilename recovers the server-suggested filename from a
	// header-only request, or "" when none is offered.
	SuggestedFilename(ctx context.Context, rawURL, referer string) (string, error)
}

// TransferRequest describes one payload transfer.
type TransferRequest struct {
	URL          string
	Referer      string
	TempPath     string
	ExpectedSize int64 // advisory; 0 means unknown
}

// Transfer defines the contract for the streaming download engine.
type Transfer interface {
	// Download streams the payload to req.TempPath while reporting
	// progress, and returns the final HTTP status and byte count.
	Download(ctx context.Context, req TransferRequest) (domain.TransferResult, error)
}

// Storage defines the contract for the output directory and the in-flight
// temporary file.
type Storage interface {
	// TempPath returns the process-scoped in-flight file path.
	TempPath() string

	// Publish renames the in-flight file to finalName inside the output
	// directory and returns the resulting path.
	Publish(finalName string) (string, error)

	// Discard removes the in-flight file, if any.
	Discard() error
}

// History defines the contract for the append-only success log.
type History interface {
	Append(rec domain.HistoryRecord) error
}
