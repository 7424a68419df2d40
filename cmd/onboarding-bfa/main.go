package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/config"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/handler"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/cache"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/content"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/email"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/llm"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/observability"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/port"
	"github.com/boddenberg/sales-onboarding-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	loc := cfg.Location()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("supabase_url", cfg.SupabaseURL),
		zap.Bool("local_jwt_verification", cfg.SupabaseJWTSecret != ""),
		zap.Bool("email_configured", cfg.ResendAPIKey != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("upload_timeout", cfg.UploadTimeout),
		zap.Duration("token_cache_ttl", cfg.TokenCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.String("timezone", loc.String()),
	)

	// --- Tracing ---
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(context.Background(), "sales-onboarding-bfa", cfg.OTLPEndpoint)
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	tokenCache := cache.New[domain.AuthUser](cfg.TokenCacheTTL)
	defer tokenCache.Stop()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	supabaseCB := resilience.NewCircuitBreaker("supabase", logger)
	llmCB := resilience.NewCircuitBreaker("llm", logger)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	db := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		supabaseCB,
		resilienceCfg,
		logger,
	).WithUploadTimeout(cfg.UploadTimeout)

	sender, err := email.NewResendSender(httpClient, cfg.ResendAPIKey, "", logger)
	if err != nil {
		logger.Fatal("failed to init email sender", zap.Error(err))
	}
	if !sender.Configured() {
		logger.Warn("RESEND_API_KEY not set: outbound emails will be recorded as failed")
	}

	prober := llm.NewProber(httpClient, cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, llmCB, resilienceCfg)

	modules, err := content.Load()
	if err != nil {
		logger.Fatal("failed to load training content", zap.Error(err))
	}

	// --- Services ---
	svc := handler.Services{
		Sessions: service.NewSessionService(db, db, tokenCache, cfg.SupabaseJWTSecret, metrics, logger),
		Onboarding: service.NewOnboardingService(
			db, db, db, db, modules,
			service.Buckets{CV: cfg.CVBucket, Recordings: cfg.RecordingsBucket},
			metrics, logger, nil,
		),
		KPI:       service.NewKPIService(db, db, loc, logger, nil),
		Dispatch:  service.NewDispatchService(db, db, metrics, logger, nil),
		Financing: service.NewFinancingService(db, loc, logger, nil),
		Feedback:  service.NewFeedbackService(db, logger),
		Email: service.NewEmailRelay(
			db, db, db, sender,
			service.Sender{Address: cfg.EmailFromAddress, Name: cfg.EmailFromName, BaseURL: cfg.PublicBaseURL},
			metrics, logger, nil,
		),
		Diagnostics: service.NewDiagnostics(
			map[string]port.HealthChecker{"supabase": db},
			prober, cfg.LLMAPIKey, logger, nil,
		),
	}

	// --- Router ---
	router := handler.NewRouter(svc, metrics, logger, cfg.CORSAllowedOrigins)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
