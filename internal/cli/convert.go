package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	convertCase string
	convertText string
	convertJSON string
)

// convertCmd previews conversion without touching the store
var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert text into deontic statements without persisting them",
	Long: `Convert runs the natural-language-to-logic converter and prints the
resulting statements. Nothing is persisted and no conflict detection
runs; use ingest to store statements or lint to check for conflicts.

Examples:
  deontica convert draft_opinion.txt
  deontica convert --text "Tenants must pay rent within 5 days."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertCase, "case", "", "case identifier for the converted text")
	convertCmd.Flags().StringVar(&convertText, "text", "", "convert a literal text string")
	convertCmd.Flags().StringVar(&convertJSON, "json", "", "write statements as JSON to path (- for stdout)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	var text string
	switch {
	case convertText != "":
		text = convertText
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		text = string(data)
	default:
		return fmt.Errorf("provide a file argument or --text")
	}

	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	statements := eng.ConvertText(text, convertCase)

	if convertJSON != "" {
		return writeJSON(convertJSON, statements)
	}

	if len(statements) == 0 {
		fmt.Println("No deontic statements detected.")
		return nil
	}
	for _, s := range statements {
		fmt.Printf("%s  (%s, confidence %.2f)\n", s.LogicExpression, s.Modality, s.Confidence)
		if verbose {
			fmt.Fprintf(os.Stderr, "  from: %s\n", s.NaturalLanguage)
		}
	}
	return nil
}
