package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fundflow/config"
	httpHandler "fundflow/internal/adapter/http/handler"
	pgStorage "fundflow/internal/adapter/storage/postgres"
	redisStorage "fundflow/internal/adapter/storage/redis"
	"fundflow/internal/core/ports"
	"fundflow/internal/service"
	"fundflow/pkg/logger"
)

func main() {
	// Load configuration. A missing encryption secret is fatal: the
	// process must never fall back to a default key.
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting FundFlow withdrawal service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Apply schema migrations
	if err := pgStorage.RunMigrations(pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	campaignRepo := pgStorage.NewCampaignRepo(pool)
	donationRepo := pgStorage.NewDonationRepo(pool)
	withdrawalRepo := pgStorage.NewWithdrawalRepo(pool)
	userRepo := pgStorage.NewUserRepo(pool)
	activityRepo := pgStorage.NewActivityRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	submissionCache := redisStorage.NewSubmissionCache(rdb)

	// Initialize core services
	cipher, err := service.NewAESFieldCipher(cfg.Encryption.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize field encryption")
	}
	sigSvc := service.NewHMACSignatureService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(activityRepo, log)
	notifier := service.NewRelayNotificationService(
		cfg.Notification.Endpoint,
		cfg.Notification.SigningSecret,
		sigSvc,
		&http.Client{Timeout: cfg.Notification.Timeout},
		log,
	)

	// Initialize business services
	ledger := service.NewLedgerService(donationRepo, withdrawalRepo)
	crypto := service.NewWithdrawalCrypto(cipher)
	withdrawalSvc := service.NewWithdrawalService(
		withdrawalRepo,
		campaignRepo,
		userRepo,
		ledger,
		crypto,
		submissionCache,
		notifier,
		auditSvc,
		transactor,
		log,
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WithdrawalSvc:  withdrawalSvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
