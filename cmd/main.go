// scout-service — automated job discovery and tracking backend.
//
// Runs the scout pipeline (fetch → dedup → pre-filter → AI score → persist
// → notify) on a cron schedule and exposes the manual trigger, review-queue
// and tracked-jobs APIs over HTTP.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jobscout/scout-service/internal/ai"
	"jobscout/scout-service/internal/config"
	"jobscout/scout-service/internal/db"
	"jobscout/scout-service/internal/logger"
	"jobscout/scout-service/internal/notify"
	"jobscout/scout-service/internal/scheduler"
	"jobscout/scout-service/internal/scout"
	"jobscout/scout-service/internal/store"
	"jobscout/scout-service/internal/tracker"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logger.Must(os.Getenv("LOG_LEVEL"))
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error", logger.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ──────────────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres", logger.Error(err))
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ── Redis ───────────────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis", logger.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	// ── Pipeline wiring ─────────────────────────────────────────────────────
	fetchers := []scout.Fetcher{
		scout.NewAdzunaFetcher(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry, log),
		scout.NewSerperFetcher(cfg.SerperAPIKey, cfg.AdzunaCountry, "", log),
	}

	scorer := scout.NewScorer(ai.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel), log)

	var notifier scout.Notifier
	if cfg.TelegramBotToken != "" && cfg.OwnerTelegramChat != "" {
		notifier = notify.NewTelegram(cfg.TelegramBotToken, cfg.OwnerTelegramChat)
	} else {
		log.Warn("telegram not configured, run notifications disabled")
	}

	st := store.New(pool)
	runner := scout.NewRunner(
		st,
		fetchers,
		scorer,
		scout.NewPrefilter(scout.DefaultFilterConfig(), cfg.Scoring.RoleThreshold),
		scout.NewDeduper(cfg.Scoring.DedupThreshold),
		notifier,
		scout.NewRedisLock(rdb),
		cfg.Scoring,
		cfg.OwnerEmail,
		log,
	)

	// ── Scheduler ───────────────────────────────────────────────────────────
	sched := scheduler.New(runner, cfg.ScoutIntervalHours, cfg.RunOnStart, log)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("scheduler", logger.Error(err))
	}
	defer sched.Stop()

	// ── HTTP server ─────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	scout.NewHandler(runner, st, log).RegisterRoutes(mux)
	tracker.NewHandler(tracker.NewService(pool, rdb, log), log).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", srv.Addr), logger.String("version", version))
		errCh <- srv.ListenAndServe()
	}()

	// ── Graceful shutdown ───────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal("http server", logger.Error(err))
	case sig := <-sigCh:
		log.Info("shutting down", logger.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", logger.Error(err))
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "scout-service",
		"version": version,
	})
}
