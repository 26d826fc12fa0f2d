package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksalter/deontica/internal/model"
)

var (
	searchLimit int
	searchJSON  string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find statements related to a query by TF-IDF similarity",
	Long: `Search ranks stored statements against the query text using cosine
similarity over TF-IDF vectors. Results below the similarity floor are
dropped, so fewer hits than the limit is normal.

Examples:
  deontica search "security deposit return deadline"
  deontica search --limit 10 --json - "landlord obligations"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var topicCmd = &cobra.Command{
	Use:   "topic <topic-id>",
	Short: "Group a topic's statements by deontic modality",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopic,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(topicCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 5, "maximum number of results")
	searchCmd.Flags().StringVar(&searchJSON, "json", "", "write results as JSON to path (- for stdout)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	hits, err := eng.Search(context.Background(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON != "" {
		return writeJSON(searchJSON, hits)
	}

	if len(hits) == 0 {
		fmt.Println("No related statements found.")
		return nil
	}
	for i, h := range hits {
		fmt.Printf("%d. [%.3f] %s\n", i+1, h.Similarity, h.Statement.LogicExpression)
		fmt.Printf("   %s\n", h.Statement.NaturalLanguage)
		if h.Statement.CaseID != "" {
			fmt.Printf("   case: %s\n", h.Statement.CaseID)
		}
	}
	return nil
}

func runTopic(cmd *cobra.Command, args []string) error {
	var topicID int64
	if _, err := fmt.Sscanf(args[0], "%d", &topicID); err != nil {
		return fmt.Errorf("invalid topic id %q", args[0])
	}

	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	groups := eng.TopicRelationships(topicID)

	sections := []struct {
		label string
		items []model.Statement
	}{
		{"Obligations", groups.Obligations},
		{"Permissions", groups.Permissions},
		{"Prohibitions", groups.Prohibitions},
	}
	for _, sec := range sections {
		fmt.Printf("%s (%d):\n", sec.label, len(sec.items))
		for _, s := range sec.items {
			fmt.Printf("  %s\n", s.LogicExpression)
		}
	}
	return nil
}
