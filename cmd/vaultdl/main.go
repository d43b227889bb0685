package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"vaultdl/internal/adapters/localstorage"
	"vaultdl/internal/adapters/queuefile"
	"vaultdl/internal/adapters/transfer"
	"vaultdl/internal/adapters/vaultsite"
	"vaultdl/internal/service"
)

func main() {
	// Load .env if present; environment variables may also be set manually.
	_ = godotenv.Load()

	queuePath := flag.String("queue", envOr("VAULTDL_QUEUE", "queue.txt"), "queue file with one page URL per line")
	outDir := flag.String("out", envOr("VAULTDL_OUT", "./downloads"), "output directory for finished files")
	historyPath := flag.String("history", envOr("VAULTDL_HISTORY", "vaultdl-history.log"), "append-only success log")
	origin := flag.String("origin", envOr("VAULTDL_ORIGIN", vaultsite.DefaultOrigin), "vault origin host")
	delay := flag.Duration("delay", envDurationOr("VAULTDL_DELAY", 5*time.Second), "politeness delay between items")
	successCooldown := flag.Duration("success-cooldown", envDurationOr("VAULTDL_SUCCESS_COOLDOWN", 10*time.Second), "extra pause after a delivered item")
	rateLimitCooldown := flag.Duration("429-cooldown", envDurationOr("VAULTDL_429_COOLDOWN", 30*time.Second), "extra pause after a rate-limited item")
	stopOn429 := flag.Bool("stop-on-429", false, "abort the whole run on the first rate-limited item")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*verbose)

	site, err := vaultsite.NewClient(vaultsite.Config{Origin: *origin})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize site client")
	}

	store, err := localstorage.New(*outDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize output directory")
	}

	queue, err := queuefile.Load(*queuePath)
	if err != nil {
		if errors.Is(err, queuefile.ErrQueueFileMissing) {
			logger.Fatal().Str("path", *queuePath).Msg("queue file not found")
		}
		logger.Fatal().Err(err).Msg("failed to load queue")
	}

	engine := transfer.New(site.HTTPClient(), logger, transfer.Options{UserAgent: site.UserAgent()})
	history := queuefile.NewHistory(*historyPath)

	orchestrator := service.NewOrchestrator(queue, site, engine, store, history, logger, service.Config{
		Delay:             *delay,
		SuccessCooldown:   *successCooldown,
		RateLimitCooldown: *rateLimitCooldown,
		StopOn429:         *stopOn429,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn().Msg("interrupt received, finishing up")
		cancel()
	}()

	totals, runErr := orchestrator.Run(ctx)

	if err := site.WriteCookieSnapshot(store.CookieSnapshotPath()); err != nil {
		logger.Debug().Err(err).Msg("could not write cookie snapshot")
	}

	fmt.Println("\n=== Run Summary ===")
	fmt.Printf("Attempted:    %d\n", totals.Attempted)
	fmt.Printf("Succeeded:    %d\n", totals.Succeeded)
	fmt.Printf("Rate limited: %d\n", totals.RateLimited)
	fmt.Printf("Failed:       %d\n", totals.Failed)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error().Err(runErr).Msg("run aborted")
		os.Exit(1)
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
