package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopscout-ai/shopscout/cmd/shopscout-cli/ui"
	"github.com/shopscout-ai/shopscout/internal/analysis"
	"github.com/shopscout-ai/shopscout/internal/cache"
	"github.com/shopscout-ai/shopscout/internal/llm"
	"github.com/shopscout-ai/shopscout/internal/orchestrator"
	"github.com/shopscout-ai/shopscout/internal/search"
	"github.com/shopscout-ai/shopscout/internal/storage"
)

var (
	searchMinPrice float64
	searchMaxPrice float64
	searchCategory string
	searchUseAI    bool
	searchUser     string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search shopping listings and rank them",
	Long: `Search runs the full flow against the configured provider: fetch
listings, structure them, score with the rule engine (or the LLM with
--ai) and print the ranked recommendation. Results are persisted to the
configured database so they show up in the API history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Float64Var(&searchMinPrice, "min-price", 0, "minimum price filter")
	searchCmd.Flags().Float64Var(&searchMaxPrice, "max-price", 0, "maximum price filter")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "category profile to apply (default: detected)")
	searchCmd.Flags().BoolVar(&searchUseAI, "ai", false, "use the LLM for a refined analysis")
	searchCmd.Flags().StringVar(&searchUser, "user", "cli", "user ID to record the search under")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ui.Init(noColor, verbose)
	logger := newLogger(cfg)
	query := strings.Join(args, " ")

	searchClient, err := search.NewClient(search.Config{
		BaseURL:     cfg.Search.BaseURL,
		APIKey:      cfg.Search.APIKey,
		Engine:      cfg.Search.Engine,
		ResultLimit: cfg.Search.ResultLimit,
		Timeout:     cfg.Search.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("search provider: %w (set SERPAPI_KEY)", err)
	}
	cacheClient := cache.NewMemoryClient(cfg.Cache.MaxEntries)
	defer cacheClient.Close()
	provider := search.NewCachedProvider(searchClient, cacheClient, logger, cfg.Search.CacheTTL)

	var llmClient *llm.Client
	if cfg.LLM.APIKey != "" {
		if llmClient, err = llm.NewClient(llm.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Timeout: cfg.LLM.RequestTimeout,
		}); err != nil {
			ui.Warning("LLM no disponible: %v", err)
		}
	}
	if searchUseAI && llmClient == nil {
		ui.Warning("Sin clave de LLM, se usa el análisis local (configurá GEMINI_API_KEY)")
	}

	maxOpen, maxIdle, connLifetime := cfg.DatabasePool()
	db, err := storage.Open(cfg.Database.Driver, cfg.DatabaseDSN(), storage.Pool{
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: connLifetime,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := storage.Migrate(cmd.Context(), db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	profiles := analysis.LoadProfiles(cfg.Analysis.ProfilesDir, logger)
	var recommender orchestrator.Recommender
	if llmClient != nil {
		recommender = llm.NewRecommender(llmClient, logger, cfg.LLM.AnalysisModel)
	}

	orch := orchestrator.New(orchestrator.Options{
		Provider:     provider,
		Cleaner:      llm.NewCleaner(llmClient, logger, cfg.LLM.CleanerModel),
		Engine:       analysis.NewEngine(logger, profiles),
		Recommender:  recommender,
		Searches:     storage.NewSearchRepository(db),
		Products:     storage.NewProductRepository(db),
		Logger:       logger,
		CountryCode:  cfg.Search.CountryCode,
		LanguageCode: cfg.Search.LanguageCode,
		Currency:     cfg.Search.Currency,
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
	defer cancel()

	spinner := ui.NewSpinner("Buscando productos...")
	spinner.Start()

	result, err := orch.Perform(ctx, orchestrator.Request{
		UserID:   searchUser,
		Query:    query,
		MinPrice: searchMinPrice,
		MaxPrice: searchMaxPrice,
		Category: searchCategory,
		UseAI:    searchUseAI,
	}, func(event orchestrator.StepEvent) {
		spinner.UpdateMessage(event.Message)
	})
	spinner.Stop()

	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOut {
		return printJSON(result)
	}

	printSearchResult(result)
	ui.Verbose("Búsqueda guardada: %s", result.ID)
	return nil
}
