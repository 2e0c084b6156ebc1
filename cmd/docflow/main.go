package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/liliang-cn/docflow/internal/api"
	"github.com/liliang-cn/docflow/internal/config"
	"github.com/liliang-cn/docflow/internal/logger"
	"github.com/liliang-cn/docflow/internal/oracle"
	"github.com/liliang-cn/docflow/internal/repository"
	"github.com/liliang-cn/docflow/internal/safety"
	"github.com/liliang-cn/docflow/internal/schema"
	"github.com/liliang-cn/docflow/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	envPath    = flag.String("env", ".env", "Path to .env file")
)

func main() {
	flag.Parse()

	// .env is optional
	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load %s: %v", *envPath, err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database (generated artifacts only, sessions are in memory)
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Oracles are optional: without them classification falls back to keywords
	// and extraction yields nothing, so conversations only ask questions
	var (
		classifierOracle oracle.Classifier
		extractorOracle  oracle.Extractor
		moderatorOracle  oracle.Moderator
	)
	if cfg.OracleEnabled() {
		client := oracle.NewOpenAIClient(oracle.Config{
			BaseURL:         cfg.LLM.BaseURL,
			APIKey:          cfg.LLM.APIKey,
			ChatModel:       cfg.LLM.ChatModel,
			ModerationModel: cfg.LLM.ModerationModel,
			Temperature:     cfg.LLM.Temperature,
			MaxRetries:      cfg.LLM.MaxRetries,
		}, logger)
		classifierOracle, extractorOracle, moderatorOracle = client, client, client
	} else {
		logger.Warn("llm.api_key not set, running without oracles")
	}

	// Initialize services
	registry := schema.NewRegistry()
	gate := safety.NewGate(safety.NewScanner(cfg.Safety.BlockThreshold), moderatorOracle, cfg.LLM.Timeout, logger)
	classifier := service.NewClassifier(classifierOracle, cfg.LLM.Timeout, logger)
	extractor := service.NewExtractor(extractorOracle, cfg.LLM.Timeout, logger)

	artifactService := service.NewArtifactService(registry, repository.NewArtifactRepository(db), logger)
	engine := service.NewEngine(
		registry,
		gate,
		classifier,
		extractor,
		service.NewHandoff(artifactService, logger),
		repository.NewSessionStore(cfg.Session.TTL),
		cfg.Session.TTL,
		logger,
	)
	processService := service.NewProcessService(registry, gate, classifier, extractor, logger)
	adminService := service.NewAdminService(engine, artifactService)

	// Setup router
	router := api.SetupRouter(api.Services{
		Engine:    engine,
		Process:   processService,
		Artifacts: artifactService,
		Admin:     adminService,
		Registry:  registry,
	}, api.RouterConfig{
		APIKey:        cfg.Admin.APIKey,
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  cfg.Server.CORSMethods,
		AllowHeaders:  cfg.Server.CORSHeaders,
		OracleEnabled: cfg.OracleEnabled(),
		DatabasePath:  cfg.Database.Path,
		Logger:        logger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Evict expired sessions in the background
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	var workers conc.WaitGroup
	if cfg.Session.TTL > 0 && cfg.Session.SweepInterval > 0 {
		workers.Go(func() {
			sweep(sweepCtx, engine, cfg.Session.SweepInterval)
		})
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting docflow server",
			zap.String("address", cfg.Address()),
			zap.String("base_url", cfg.Server.BaseURL),
			zap.Bool("oracle", cfg.OracleEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stopSweep()
	workers.Wait()

	logger.Info("Server exited")
}

func sweep(ctx context.Context, engine *service.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.EvictExpired()
		}
	}
}
