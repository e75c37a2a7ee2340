package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodbridge/api/internal/app"
	"github.com/foodbridge/api/internal/clock"
	"github.com/foodbridge/api/internal/config"
	"github.com/foodbridge/api/internal/logger"
	"github.com/foodbridge/api/internal/scheduler"
	"github.com/foodbridge/api/internal/storage/postgres"
	transporthttp "github.com/foodbridge/api/internal/transport/http"
	"github.com/foodbridge/api/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.Environment)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	clk := clock.NewSystem()

	donationRepo := postgres.NewDonationRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)

	dispatcher := app.NewDispatcher(notificationRepo, accountRepo, clk, log)
	defer dispatcher.Close()

	donationSvc := app.NewDonationService(donationRepo, dispatcher, clk)
	acceptSvc := app.NewAcceptService(donationRepo, dispatcher, clk)
	matchSvc := app.NewMatchService(donationRepo)
	statsSvc := app.NewStatsService(donationRepo)
	notificationSvc := app.NewNotificationService(notificationRepo)

	sweeper := scheduler.NewExpiryScheduler(donationRepo, clk, log, cfg.ExpirySweepSpec)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("start expiry scheduler: %v", err)
	}
	defer sweeper.Stop()

	limiter := transporthttp.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)

	mux := http.NewServeMux()
	mux.Handle("/donations", transporthttp.HandleDonations(donationSvc, limiter))
	mux.Handle("/donations/nearby", transporthttp.HandleNearbyDonations(matchSvc))
	mux.Handle("/donations/stats", transporthttp.HandleDonorStats(statsSvc))
	mux.Handle("/donations/", transporthttp.HandleDonationItem(donationSvc, acceptSvc, limiter))
	mux.Handle("/notifications", transporthttp.HandleNotifications(notificationSvc))
	mux.Handle("/notifications/", transporthttp.HandleNotificationRead(notificationSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	authed := transporthttp.Authenticate([]byte(cfg.JWTSecret), mux)

	public := http.NewServeMux()
	public.HandleFunc("/health", transporthttp.HealthHandler)
	public.Handle("/", authed)

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, public), log)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.WithField("port", cfg.Port).Info("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server error")
		}
	case <-stopCtx.Done():
		log.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("server shutdown error")
	}
	log.Info("server stopped")
}
