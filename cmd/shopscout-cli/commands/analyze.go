package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shopscout-ai/shopscout/cmd/shopscout-cli/ui"
	"github.com/shopscout-ai/shopscout/internal/analysis"
	"github.com/shopscout-ai/shopscout/internal/catalog"
)

var (
	analyzeQuery    string
	analyzeCategory string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <listings.json>",
	Short: "Score and rank a listings dump offline",
	Long: `Analyze reads a JSON array of shopping listings from a file and runs the
rule engine against it without touching the network. Useful for tuning
category profiles against captured provider responses.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuery, "query", "q", "", "original search query, improves relevance scoring")
	analyzeCmd.Flags().StringVar(&analyzeCategory, "category", "", "category profile to apply (default: detected from query)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ui.Init(noColor, verbose)
	logger := newLogger(cfg)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read listings file: %w", err)
	}

	var listings []catalog.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return fmt.Errorf("parse listings file: %w", err)
	}

	category := analyzeCategory
	if category == "" {
		category = analysis.DetectCategory(analyzeQuery)
	}
	ui.Verbose("Categoría aplicada: %s", category)

	profiles := analysis.LoadProfiles(cfg.Analysis.ProfilesDir, logger)
	engine := analysis.NewEngine(logger, profiles)

	result := engine.Analyze(analyzeQuery, listings, nil, category)

	if jsonOut {
		return printJSON(result)
	}

	printSearchResult(&catalog.SearchResult{
		FinalRecommendation: result.FinalRecommendation,
		Products:            analysis.FuseAnalysis(logger, listings, result),
		TotalResults:        len(listings),
	})
	return nil
}
