package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/careloop/booking-api/internal/config"
	"github.com/careloop/booking-api/internal/email"
	"github.com/careloop/booking-api/internal/repository/postgres"
	"github.com/careloop/booking-api/internal/service/notification"
	"github.com/careloop/booking-api/pkg/logger"
	"github.com/careloop/booking-api/pkg/messaging/redis"
	"github.com/careloop/booking-api/pkg/metrics"
	"github.com/careloop/booking-api/pkg/worker"
)

func setupHealthServer(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.Error(err, "health server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewBroker(cfg.Redis.ToBrokerConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	workerMetrics := metrics.New("booking_worker")

	emailSvc := email.NewSMTPService(cfg.SMTP.ToEmailConfig())
	notifier := notification.NewService(emailSvc, appLogger, workerMetrics)

	outboxRepo := postgres.NewOutboxRepository(db)
	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		notifier,
		cfg.Outbox.ToWorkerConfig(),
		appLogger,
		workerMetrics,
	)

	setupHealthServer(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	go processor.Start(ctx)

	log.Info().Msg("outbox worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker...")
	cancel()

	log.Info().Msg("worker exited properly")
}
