package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksalter/deontica/internal/model"
)

var statsJSON string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsJSON, "json", "", "write stats as JSON to path (- for stdout)")
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	stats, err := eng.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if statsJSON != "" {
		return writeJSON(statsJSON, stats)
	}

	fmt.Printf("Statements: %d\n", stats.TotalStatements)
	fmt.Printf("Topics:     %d\n", stats.TotalTopics)
	fmt.Printf("Citations:  %d\n", stats.TotalCitations)

	fmt.Println("By modality:")
	for _, m := range []model.Modality{model.ModalityObligation, model.ModalityPermission, model.ModalityProhibition} {
		fmt.Printf("  %-12s %d\n", m, stats.StatementsByModality[m])
	}

	fmt.Println("Unresolved conflicts:")
	for _, sev := range []model.Severity{model.SeverityCritical, model.SeverityWarning, model.SeverityInfo} {
		fmt.Printf("  %-12s %d\n", sev, stats.UnresolvedConflicts[sev])
	}
	return nil
}
