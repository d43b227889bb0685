package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"vaultdl/internal/core/domain"
	"vaultdl/internal/core/ports"
)

// maxErrorBody bounds how much of a non-200 response body is drained.
const maxErrorBody = 1 << 20

// Options tunes the download engine.
type Options struct {
	// UserAgent sent on the payload request. Empty means the http.Client's
	// default behavior.
	UserAgent string

	// PollInterval is how often the monitor samples the in-flight file
	// size. Zero means one second.
	PollInterval time.Duration

	// ProgressOutput receives the rendered progress bar.
	// Nil means os.Stderr; tests pass io.Discard.
	ProgressOutput io.Writer
}

// Downloader performs the streamed payload fetch. The HTTP transfer runs in a
// background goroutine writing to the temp file; the foreground polls the
// file's size to render progress and only reads the result after the
// goroutine has finished.
type Downloader struct {
	client       *http.Client
	logger       zerolog.Logger
	userAgent    string
	pollInterval time.Duration
	progressOut  io.Writer
}

// New creates a Downloader on top of the session-carrying HTTP client.
func New(client *http.Client, logger zerolog.Logger, opts Options) *Downloader {
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	progressOut := opts.ProgressOutput
	if progressOut == nil {
		progressOut = os.Stderr
	}
	return &Downloader{
		client:       client,
		logger:       logger,
		userAgent:    opts.UserAgent,
		pollInterval: pollInterval,
		progressOut:  progressOut,
	}
}

// copyOutcome travels from the transfer goroutine back to the foreground.
// It is the side channel carrying the terminal HTTP status; the body stream
// itself goes to the temp file.
type copyOutcome struct {
	status int
	err    error
}

// Download streams the payload at req.URL into req.TempPath and returns the
// final HTTP status and byte count. The temp file is truncated first: any
// leftover from an interrupted run is untrusted.
func (d *Downloader) Download(ctx context.Context, req ports.TransferRequest) (domain.TransferResult, error) {
	out, err := os.OpenFile(req.TempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return domain.TransferResult{}, fmt.Errorf("failed to open temp file: %w", err)
	}

	done := make(chan copyOutcome, 1)
	go func() {
		done <- d.transfer(ctx, req, out)
	}()

	outcome := d.monitor(req, done)
	out.Close()

	result := domain.TransferResult{
		HTTPStatus:   outcome.status,
		BytesWritten: fileSize(req.TempPath),
	}
	if outcome.err != nil {
		return result, outcome.err
	}
	return result, nil
}

func (d *Downloader) transfer(ctx context.Context, req ports.TransferRequest, out *os.File) copyOutcome {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return copyOutcome{err: fmt.Errorf("failed to create payload request: %w", err)}
	}
	if d.userAgent != "" {
		httpReq.Header.Set("User-Agent", d.userAgent)
	}
	httpReq.Header.Set("Accept", "*/*")
	// Explicit identity keeps the transport from transparently gunzipping
	// an archive payload.
	httpReq.Header.Set("Accept-Encoding", "identity")
	if req.Referer != "" {
		httpReq.Header.Set("Referer", req.Referer)
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return copyOutcome{err: fmt.Errorf("payload request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return copyOutcome{status: resp.StatusCode}
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return copyOutcome{status: resp.StatusCode, err: fmt.Errorf("payload stream interrupted: %w", err)}
	}
	return copyOutcome{status: resp.StatusCode}
}

// monitor polls the temp file size until the transfer goroutine reports in.
// Receiving on done is the join: the foreground never sees a result while the
// background is still writing.
func (d *Downloader) monitor(req ports.TransferRequest, done <-chan copyOutcome) copyOutcome {
	bar := d.newBar(req.ExpectedSize)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	prev := int64(0)
	lastPoll := time.Now()
	for {
		select {
		case outcome := <-done:
			_ = bar.Set64(fileSize(req.TempPath))
			_ = bar.Finish()
			return outcome
		case now := <-ticker.C:
			snap := progressSnapshot(prev, fileSize(req.TempPath), req.ExpectedSize, now.Sub(lastPoll))
			_ = bar.Set64(snap.Bytes)
			d.logger.Debug().
				Int64("bytes", snap.Bytes).
				Float64("bytes_per_sec", snap.BytesPerSec).
				Float64("percent", snap.Percent).
				Msg("transfer progress")
			prev = snap.Bytes
			lastPoll = now
		}
	}
}

func (d *Downloader) newBar(total int64) *progressbar.ProgressBar {
	if total <= 0 {
		// Indeterminate: running byte count, no percentage.
		total = -1
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(d.progressOut),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
