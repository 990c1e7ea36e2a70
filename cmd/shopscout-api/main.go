// Package main provides the shopping assistant API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shopscout-ai/shopscout/internal/analysis"
	"github.com/shopscout-ai/shopscout/internal/cache"
	"github.com/shopscout-ai/shopscout/internal/config"
	"github.com/shopscout-ai/shopscout/internal/llm"
	"github.com/shopscout-ai/shopscout/internal/observability"
	"github.com/shopscout-ai/shopscout/internal/orchestrator"
	"github.com/shopscout-ai/shopscout/internal/search"
	"github.com/shopscout-ai/shopscout/internal/session"
	"github.com/shopscout-ai/shopscout/internal/storage"
	"github.com/shopscout-ai/shopscout/internal/whatsapp"
)

func main() {
	// Load .env if present; real environment always wins.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting ShopScout API")

	deps, cleanup, err := buildDependencies(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}
	defer cleanup()

	router := NewRouter(logger, cfg, deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// Dependencies bundles the wired services the router needs.
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator
	Searches     *storage.SearchRepository
	Conversation *whatsapp.Conversation
}

func buildDependencies(cfg *config.Config, logger *observability.Logger) (*Dependencies, func(), error) {
	maxOpen, maxIdle, connLifetime := cfg.DatabasePool()
	db, err := storage.Open(cfg.Database.Driver, cfg.DatabaseDSN(), storage.Pool{
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: connLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		cacheClient, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory cache")
			cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}

	searchClient, err := search.NewClient(search.Config{
		BaseURL:     cfg.Search.BaseURL,
		APIKey:      cfg.Search.APIKey,
		Engine:      cfg.Search.Engine,
		ResultLimit: cfg.Search.ResultLimit,
		Timeout:     cfg.Search.RequestTimeout,
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create search client: %w", err)
	}
	provider := search.NewCachedProvider(searchClient, cacheClient, logger, cfg.Search.CacheTTL)

	// The LLM is optional: without a key the cleaner degrades to
	// passthrough and the recommender is disabled.
	var llmClient *llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient, err = llm.NewClient(llm.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Timeout: cfg.LLM.RequestTimeout,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("LLM client unavailable, AI features disabled")
		}
	}

	profiles := analysis.LoadProfiles(cfg.Analysis.ProfilesDir, logger)
	engine := analysis.NewEngine(logger, profiles)
	cleaner := llm.NewCleaner(llmClient, logger, cfg.LLM.CleanerModel)

	var recommender orchestrator.Recommender
	if llmClient != nil {
		recommender = llm.NewRecommender(llmClient, logger, cfg.LLM.AnalysisModel)
	}

	searches := storage.NewSearchRepository(db)
	products := storage.NewProductRepository(db)

	orch := orchestrator.New(orchestrator.Options{
		Provider:     provider,
		Cleaner:      cleaner,
		Engine:       engine,
		Recommender:  recommender,
		Searches:     searches,
		Products:     products,
		Logger:       logger,
		CountryCode:  cfg.Search.CountryCode,
		LanguageCode: cfg.Search.LanguageCode,
		Currency:     cfg.Search.Currency,
	})

	sessions := session.NewStore(cfg.WhatsApp.SessionTTL)

	var conversation *whatsapp.Conversation
	if cfg.WhatsApp.Token != "" && cfg.WhatsApp.PhoneNumberID != "" {
		sender, err := whatsapp.NewClient(whatsapp.Config{
			BaseURL:       cfg.WhatsApp.APIBaseURL,
			Token:         cfg.WhatsApp.Token,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("WhatsApp sender unavailable, channel disabled")
		} else {
			conversation = whatsapp.NewConversation(sessions, sender, orch, profiles, logger)
		}
	}

	cleanup := func() {
		sessions.Close()
		cacheClient.Close()
		db.Close()
	}

	return &Dependencies{
		Orchestrator: orch,
		Searches:     searches,
		Conversation: conversation,
	}, cleanup, nil
}
