package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksalter/deontica/internal/fetch"
	"github.com/ksalter/deontica/internal/model"
)

var (
	ingestTopic string
	ingestCase  string
	ingestURL   string
	ingestText  string
	ingestJSON  string
)

// ingestCmd converts and persists legal text
var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Convert legal text into deontic statements and persist them",
	Long: `Ingest converts legal text into formal deontic statements, stores them,
rebuilds the semantic index, and runs conflict detection against the
whole corpus.

The text comes from a file argument, --text, or --url (the page is
fetched, robots.txt permitting, and reduced to visible text).

Examples:
  deontica ingest opinion.txt --topic "Civil Rights" --case brown_v_board
  deontica ingest --text "States must provide equal protection." --topic "Civil Rights"
  deontica ingest --url https://example.org/opinions/123 --case roe_v_wade`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestTopic, "topic", "", "topic name (created on first use)")
	ingestCmd.Flags().StringVar(&ingestCase, "case", "", "case identifier")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "fetch text from a URL instead of a file")
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "ingest a literal text string")
	ingestCmd.Flags().StringVar(&ingestJSON, "json", "", "write persisted statements as JSON to path (- for stdout)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	eng, cfg, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	ctx := context.Background()

	text, err := resolveIngestText(ctx, cfg, args)
	if err != nil {
		return err
	}

	statements, err := eng.Ingest(ctx, text, ingestCase, ingestTopic)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("Persisted %d statement(s)\n", len(statements))
	if verbose {
		for _, s := range statements {
			fmt.Fprintf(os.Stderr, "  [%d] %s  (%s, confidence %.2f)\n",
				s.ID, s.LogicExpression, s.Modality, s.Confidence)
		}
	}

	if ingestJSON != "" {
		return writeJSON(ingestJSON, statements)
	}
	return nil
}

// resolveIngestText reads the ingest text from --text, --url, or a file
// argument, in that priority
func resolveIngestText(ctx context.Context, cfg *model.Config, args []string) (string, error) {
	switch {
	case ingestText != "":
		return ingestText, nil
	case ingestURL != "":
		if verbose {
			fmt.Fprintf(os.Stderr, "Fetching: %s\n", ingestURL)
		}
		result, err := fetch.NewFetcher(cfg.HTTP).Fetch(ctx, ingestURL)
		if err != nil {
			return "", fmt.Errorf("fetch failed: %w", err)
		}
		return result.Text, nil
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("provide a file argument, --text, or --url")
	}
}
