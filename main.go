package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/auth"
	"github.com/rooftag-io/rooftag-engine/pkg/config"
	"github.com/rooftag-io/rooftag-engine/pkg/database"
	"github.com/rooftag-io/rooftag-engine/pkg/handlers"
	"github.com/rooftag-io/rooftag-engine/pkg/llm"
	"github.com/rooftag-io/rooftag-engine/pkg/logging"
	"github.com/rooftag-io/rooftag-engine/pkg/metrics"
	"github.com/rooftag-io/rooftag-engine/pkg/middleware"
	"github.com/rooftag-io/rooftag-engine/pkg/osm"
	"github.com/rooftag-io/rooftag-engine/pkg/repositories"
	"github.com/rooftag-io/rooftag-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Local development reads secrets from .env; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("model", cfg.AI.Model),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.Connection().DSN())),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := cfg.Database.Connection()

	if err := database.Migrate(dbCfg.DSN(), cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Migrations failed", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		logger.Fatal("Database connection failed",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	buildingRepo := repositories.NewBuildingRepository(db)

	factory := llm.NewClientFactory(llm.FactoryConfig{
		Model:           cfg.AI.Model,
		Endpoint:        cfg.AI.Endpoint,
		APIKey:          cfg.AI.APIKey,
		OpenAIAPIKey:    cfg.AI.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AI.AnthropicAPIKey,
		MistralAPIKey:   cfg.AI.MistralAPIKey,
	}, logger)

	suggestions, err := services.NewSuggestionService(factory, cfg.Palette, m, logger)
	if err != nil {
		logger.Fatal("Failed to create suggestion service", zap.Error(err))
	}
	validations := services.NewValidationService(buildingRepo, m, logger)

	var protect handlers.Protect
	if cfg.Auth.EnableVerification {
		validator, err := auth.NewJWKSClient(&auth.JWKSConfig{
			EnableVerification: true,
			JWKSEndpoint:       cfg.Auth.JWKSEndpoint,
		})
		if err != nil {
			logger.Fatal("Failed to create JWKS client", zap.Error(err))
		}
		protect = auth.NewMiddleware(validator, logger).RequireAuth
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg.Version, cfg.Env, logger).RegisterRoutes(mux)
	handlers.NewBuildingHandler(suggestions, validations, logger).RegisterRoutes(mux, protect)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	if cfg.Upload.Enabled {
		uploader := osm.NewClient(cfg.Upload.Endpoint, cfg.Upload.Token, logger)
		worker := services.NewUploadService(buildingRepo, uploader,
			time.Duration(cfg.Upload.IntervalSeconds)*time.Second, m, logger)
		go worker.Run(ctx)
	}

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("Starting rooftag-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "test" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
