package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/careloop/booking-api/internal/config"
	"github.com/careloop/booking-api/internal/email"
	appointmentHandler "github.com/careloop/booking-api/internal/handler/appointment"
	authHandler "github.com/careloop/booking-api/internal/handler/auth"
	feedbackHandler "github.com/careloop/booking-api/internal/handler/feedback"
	healthHandler "github.com/careloop/booking-api/internal/handler/health"
	userHandler "github.com/careloop/booking-api/internal/handler/user"
	"github.com/careloop/booking-api/internal/middleware"
	"github.com/careloop/booking-api/internal/repository/postgres"
	"github.com/careloop/booking-api/internal/router"
	appointmentService "github.com/careloop/booking-api/internal/service/appointment"
	authService "github.com/careloop/booking-api/internal/service/auth"
	feedbackService "github.com/careloop/booking-api/internal/service/feedback"
	userService "github.com/careloop/booking-api/internal/service/user"
	pkgauth "github.com/careloop/booking-api/pkg/auth"
	"github.com/careloop/booking-api/pkg/logger"
	"github.com/careloop/booking-api/pkg/security"
)

const version = "1.0.0"

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

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	feedbackRepo := postgres.NewFeedbackRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)

	// Services
	jwtSvc := pkgauth.NewJWTService(cfg.JWT.ToAuthConfig())
	emailSvc := email.NewSMTPService(cfg.SMTP.ToEmailConfig())
	hasher := security.NewBcryptHasher(0)
	verifier := authService.NewGoogleVerifier(cfg.Auth.GoogleClientID)

	authSvc := authService.NewService(userRepo, tokenRepo, jwtSvc, emailSvc, hasher, verifier, appLogger)
	userSvc := userService.NewService(userRepo, profileRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, userRepo)
	feedbackSvc := feedbackService.NewService(feedbackRepo, appointmentRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc, userRepo)

	r := router.NewRouter(
		authMiddleware,
		healthHandler.NewHandler(db, version),
		authHandler.NewHandler(authSvc),
		userHandler.NewHandler(userSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		feedbackHandler.NewHandler(feedbackSvc),
		router.Config{
			RateLimitEnabled:  cfg.RateLimit.Enabled,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			CORSConfig:        middleware.DefaultCORSConfig(),
			MetricsPrefix:     "booking_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
