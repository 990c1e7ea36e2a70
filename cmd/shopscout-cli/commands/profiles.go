package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shopscout-ai/shopscout/cmd/shopscout-cli/ui"
	"github.com/shopscout-ai/shopscout/internal/analysis"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the loaded category profiles",
	RunE:  runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ui.Init(noColor, verbose)
	logger := newLogger(cfg)

	store := analysis.LoadProfiles(cfg.Analysis.ProfilesDir, logger)

	if jsonOut {
		return printJSON(store.Categories())
	}

	ui.Section("Perfiles de categoría")
	rows := make([][]string, 0)
	for _, category := range store.Categories() {
		profile := store.Profile(category)
		rows = append(rows, []string{
			category,
			strconv.Itoa(len(profile.Brands)),
			strconv.Itoa(len(profile.PositiveKeywords)),
			strconv.Itoa(len(profile.NegativeKeywords)),
			strconv.Itoa(len(profile.Weights)),
		})
	}
	ui.Table([]string{"Categoría", "Marcas", "Positivas", "Negativas", "Pesos"}, rows)
	ui.Newline()
	ui.Info("Directorio: %s", cfg.Analysis.ProfilesDir)
	return nil
}
