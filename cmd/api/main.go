package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedback-call-platform/internal/auth"
	"feedback-call-platform/internal/calls"
	"feedback-call-platform/internal/campaign"
	"feedback-call-platform/internal/config"
	"feedback-call-platform/internal/httpapi"
	"feedback-call-platform/internal/notify"
	"feedback-call-platform/internal/provider"
	"feedback-call-platform/internal/schedule"
	"feedback-call-platform/pkg/logger"
	"feedback-call-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	backend := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout, log)
	notifications := notify.NewService(notify.NewMemoryRepo(), log)

	// The refresher is built after the tracker but the tracker's terminal
	// callback needs it, so bind through a variable captured by the closure.
	var refresher *calls.Refresher
	tracker := calls.NewTracker(backend, calls.TrackerConfig{
		PollInterval: cfg.Calls.PollInterval,
		OnFinished: func(callID string, st calls.CallStatus) {
			notifications.CallFinished(callID, st)
			if refresher != nil {
				refresher.Evaluate()
			}
		},
	}, log)
	defer tracker.Close()

	refresher = calls.NewRefresher(tracker, calls.NewStatusFetch(backend, tracker, log), cfg.Calls.RefreshInterval, log)
	defer refresher.Stop()

	reaper := calls.NewReaper(tracker, cfg.Calls.ReapAfter, log)
	if err := reaper.Start(); err != nil {
		log.Error("reaper init failed", "err", err)
		os.Exit(1)
	}
	defer reaper.Stop()

	coordinator := campaign.NewCoordinator(backend, campaign.NewPostgresRepo(db), func(ctx context.Context) {
		refresher.Evaluate()
	}, log)

	handlers := httpapi.Handlers{
		Coordinator:   coordinator,
		Tracker:       tracker,
		Refresher:     refresher,
		Notifications: notifications,
		Schedule:      schedule.NewRedisStore(rdb),
		Template:      backend,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, auth.RequireToken(verifier), db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
