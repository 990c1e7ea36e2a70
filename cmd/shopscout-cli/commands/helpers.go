package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopscout-ai/shopscout/cmd/shopscout-cli/ui"
	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/config"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

// loadConfig loads configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a logger for CLI runs. Internal logs stay quiet unless
// --verbose is set so they do not interleave with the rendered output.
func newLogger(cfg *config.Config) *observability.Logger {
	level := "error"
	if verbose {
		level = cfg.Observability.LogLevel
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		ServiceName: cfg.Observability.ServiceName,
	})
}

// printJSON writes any value as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printSearchResult renders a ranked search result for the terminal.
func printSearchResult(result *catalog.SearchResult) {
	if len(result.Products) == 0 {
		ui.Warning("%s", result.FinalRecommendation)
		return
	}

	ui.Section("Recomendación")
	ui.Message("%s", result.FinalRecommendation)

	ui.Section("Productos analizados")
	for i, p := range result.Products {
		marker := "  "
		if p.IsRecommended {
			marker = "⭐"
		}
		ui.Message("%s %d. %s", marker, i+1, p.Title)
		if p.Price != "" {
			line := p.Price
			if p.Source != "" {
				line += " · " + p.Source
			}
			ui.Info("%s", line)
		}
		for _, pro := range p.Pros {
			ui.Success("%s", pro)
		}
		for _, con := range p.Cons {
			ui.Warning("%s", con)
		}
		ui.Newline()
	}

	if result.TotalResults > len(result.Products) {
		ui.Verbose("Analizados %d de %d resultados", len(result.Products), result.TotalResults)
	}
}
