package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vaultdl/internal/core/domain"
	"vaultdl/internal/core/ports"
)

// Config tunes run pacing and the rate-limit policy.
type Config struct {
	// Delay is the politeness delay enforced between items regardless of
	// outcome. Zero means 5s.
	Delay time.Duration

	// SuccessCooldown is the extra pause after a confirmed delivery.
	SuccessCooldown time.Duration

	// RateLimitCooldown is the extra pause after the host answered 429.
	RateLimitCooldown time.Duration

	// StopOn429 aborts the whole run on the first rate-limited item
	// instead of skipping it.
	StopOn429 bool
}

// Orchestrator drives the pipeline: queue -> page fetch -> extraction ->
// URL resolution -> transfer -> classification -> queue advancement.
// Items are processed strictly one at a time; the host rate-limits
// aggressively and ties the session to a single client.
type Orchestrator struct {
	queue   ports.Queue
	site    ports.Site
	engine  ports.Transfer
	storage ports.Storage
	history ports.History
	logger  zerolog.Logger

	pacer             *rate.Limiter
	successCooldown   time.Duration
	rateLimitCooldown time.Duration
	stopOn429         bool
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	queue ports.Queue,
	site ports.Site,
	engine ports.Transfer,
	storage ports.Storage,
	history ports.History,
	logger zerolog.Logger,
	cfg Config,
) *Orchestrator {
	delay := cfg.Delay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Orchestrator{
		queue:             queue,
		site:              site,
		engine:            engine,
		storage:           storage,
		history:           history,
		logger:            logger,
		pacer:             rate.NewLimiter(rate.Every(delay), 1),
		successCooldown:   cfg.SuccessCooldown,
		rateLimitCooldown: cfg.RateLimitCooldown,
		stopOn429:         cfg.StopOn429,
	}
}

// Run processes the queue until it is exhausted or ctx is cancelled.
// Per-item failures never abort the run; the returned totals tell the caller
// how the batch went.
func (o *Orchestrator) Run(ctx context.Context) (domain.RunTotals, error) {
	items := o.queue.Items()
	o.logger.Info().Int("pending", len(items)).Msg("starting run")

	var totals domain.RunTotals
	for _, item := range items {
		if err := o.pacer.Wait(ctx); err != nil {
			return totals, err
		}

		totals.Attempted++
		outcome := o.processItem(ctx, item)
		switch outcome {
		case domain.OutcomeSuccess:
			totals.Succeeded++
		case domain.OutcomeRateLimited:
			totals.RateLimited++
		default:
			totals.Failed++
		}

		if outcome == domain.OutcomeRateLimited && o.stopOn429 {
			o.logger.Warn().Msg("host is rate limiting; aborting run as requested")
			return totals, nil
		}
		if err := o.cooldown(ctx, outcome); err != nil {
			return totals, err
		}
	}

	o.logger.Info().
		Int("attempted", totals.Attempted).
		Int("succeeded", totals.Succeeded).
		Int("rate_limited", totals.RateLimited).
		Int("failed", totals.Failed).
		Msg("run complete")
	return totals, nil
}

// processItem runs the full pipeline for one work item. Every exit path
// except success leaves the queue untouched and the temp file discarded.
func (o *Orchestrator) processItem(ctx context.Context, item domain.WorkItem) domain.Outcome {
	log := o.logger.With().
		Str("job", uuid.New().String()).
		Str("url", item.SourceURL).
		Int("line", item.Line).
		Logger()
	log.Info().Msg("processing item")

	page, status, err := o.site.FetchPage(ctx, item.SourceURL)
	if err != nil {
		log.Error().Err(err).Msg("page fetch failed")
		return domain.OutcomeFailed
	}
	if status == http.StatusTooManyRequests {
		log.Warn().Msg("rate limited on page visit; let the host cool down before retrying")
		return domain.OutcomeRateLimited
	}
	if status != http.StatusOK {
		log.Error().Int("status", status).Msg("page fetch returned non-OK status")
		return domain.OutcomeFailed
	}

	meta, formAction, err := o.site.Extract(page)
	if err != nil {
		log.Error().Err(err).Msg("skipping item")
		return domain.OutcomeFailed
	}
	if meta.Title == "" {
		log.Warn().Msg("no title on page; filename will fall back to media id")
	}

	target := o.site.Resolve(formAction, meta.MediaID)
	log.Info().Str("media_id", meta.MediaID).Str("target", target.ResolvedURL).Msg("resolved download target")

	expected, err := o.site.ProbeSize(ctx, target.ResolvedURL, item.SourceURL)
	if err != nil {
		// Advisory only; the monitor falls back to a running byte count.
		log.Debug().Err(err).Msg("size probe failed")
		expected = 0
	}

	result, err := o.engine.Download(ctx, ports.TransferRequest{
		URL:          target.ResolvedURL,
		Referer:      item.SourceURL,
		TempPath:     o.storage.TempPath(),
		ExpectedSize: expected,
	})
	if err != nil {
		log.Error().Err(err).Int("status", result.HTTPStatus).Msg("transfer failed")
		o.discard(log)
		return domain.OutcomeFailed
	}

	switch classifyStatus(result.HTTPStatus) {
	case domain.OutcomeSuccess:
		return o.finalize(ctx, log, item, meta, target, result)
	case domain.OutcomeRateLimited:
		log.Warn().Msg("rate limited on download; let the host cool down before retrying")
		o.discard(log)
		return domain.OutcomeRateLimited
	default:
		log.Error().Int("status", result.HTTPStatus).Msg("download rejected")
		o.discard(log)
		return domain.OutcomeFailed
	}
}

// finalize publishes the payload under its real name and advances the queue.
// A queue rewrite failure is only a warning: the file has been delivered.
func (o *Orchestrator) finalize(
	ctx context.Context,
	log zerolog.Logger,
	item domain.WorkItem,
	meta domain.PageMetadata,
	target domain.DownloadTarget,
	result domain.TransferResult,
) domain.Outcome {
	name := o.finalFilename(ctx, log, item, meta, target)
	result.FinalFilename = name

	path, err := o.storage.Publish(name)
	if err != nil {
		log.Error().Err(err).Msg("failed to publish payload")
		o.discard(log)
		return domain.OutcomeFailed
	}
	log.Info().Str("path", path).Int64("bytes", result.BytesWritten).Msg("saved payload")

	if err := o.queue.MarkComplete(item); err != nil {
		log.Warn().Err(err).Msg("could not mark queue line complete; item was delivered anyway")
	}
	if err := o.history.Append(domain.HistoryRecord{
		Timestamp: time.Now(),
		Title:     meta.Title,
		SourceURL: item.SourceURL,
	}); err != nil {
		log.Warn().Err(err).Msg("could not append history record")
	}
	return domain.OutcomeSuccess
}

// finalFilename asks the host for its suggested name via a header-only
// request; the streaming response's headers were not retained. Falls back to
// the sanitized title, then the media id.
func (o *Orchestrator) finalFilename(
	ctx context.Context,
	log zerolog.Logger,
	item domain.WorkItem,
	meta domain.PageMetadata,
	target domain.DownloadTarget,
) string {
	suggested, err := o.site.SuggestedFilename(ctx, target.ResolvedURL, item.SourceURL)
	if err != nil {
		log.Debug().Err(err).Msg("filename probe failed")
	}
	return ResolveFilename(suggested, meta)
}

func (o *Orchestrator) discard(log zerolog.Logger) {
	if err := o.storage.Discard(); err != nil {
		log.Warn().Err(err).Msg("could not remove in-flight file")
	}
}

func (o *Orchestrator) cooldown(ctx context.Context, outcome domain.Outcome) error {
	var extra time.Duration
	switch outcome {
	case domain.OutcomeSuccess:
		extra = o.successCooldown
	case domain.OutcomeRateLimited:
		extra = o.rateLimitCooldown
	}
	if extra <= 0 {
		return nil
	}
	timer := time.NewTimer(extra)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classifyStatus maps the terminal HTTP status of a transfer to an outcome.
func classifyStatus(status int) domain.Outcome {
	switch status {
	case http.StatusOK:
		return domain.OutcomeSuccess
	case http.StatusTooManyRequests:
		return domain.OutcomeRateLimited
	default:
		return domain.OutcomeFailed
	}
}
