package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksalter/deontica/internal/llm"
	"github.com/ksalter/deontica/internal/model"
)

var (
	lintCase string
	lintText string
	lintLLM  bool
	lintJSON string
)

// lintCmd checks text for conflicts without persisting anything
var lintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Check text for conflicts against the corpus without persisting",
	Long: `Lint converts text into deontic statements without storing them, unions
them with the persisted corpus, and reports conflicts that involve the
new statements. Persisted state is never mutated.

A report with zero statements analyzed is valid output: it means no
obligations, permissions, or prohibitions were detected in the text.

Examples:
  deontica lint draft_opinion.txt
  deontica lint --text "Landlords must not withhold deposits." --llm`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVar(&lintCase, "case", "", "case identifier for the linted text")
	lintCmd.Flags().StringVar(&lintText, "text", "", "lint a literal text string")
	lintCmd.Flags().BoolVar(&lintLLM, "llm", false, "append an LLM digest of the report (requires OPENAI_API_KEY)")
	lintCmd.Flags().StringVar(&lintJSON, "json", "", "write the report as JSON to path (- for stdout)")
}

func runLint(cmd *cobra.Command, args []string) error {
	var text string
	switch {
	case lintText != "":
		text = lintText
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		text = string(data)
	default:
		return fmt.Errorf("provide a file argument or --text")
	}

	eng, cfg, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	ctx := context.Background()
	report, err := eng.Lint(ctx, text, lintCase)
	if err != nil {
		return fmt.Errorf("lint failed: %w", err)
	}

	// The digest is generated after detection and never affects it
	if lintLLM {
		llmCfg := cfg.LLM
		if llmCfg.Provider == "" {
			llmCfg.Provider = "openai"
		}
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			llmCfg.APIKey = key
		}

		provider, err := llm.NewProvider(llmCfg)
		if err != nil {
			return err
		}
		if provider == nil {
			return fmt.Errorf("no LLM provider configured")
		}
		resp, err := provider.Summarize(ctx, llm.SummarizeRequest{Report: *report})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM digest failed: %v\n", err)
		} else {
			report.Summary = &model.LintSummary{
				Provider: provider.Name(),
				Model:    resp.Model,
				Text:     resp.Summary,
			}
		}
	}

	printLintReport(report)

	if lintJSON != "" {
		return writeJSON(lintJSON, report)
	}
	return nil
}

func printLintReport(report *model.LintReport) {
	fmt.Printf("Statements analyzed: %d\n", report.StatementsAnalyzed)
	fmt.Printf("Conflicts found:     %d\n", report.ConflictsFound)

	if verbose {
		for _, s := range report.Statements {
			fmt.Fprintf(os.Stderr, "  %s  (%s, confidence %.2f)\n",
				s.LogicExpression, s.Modality, s.Confidence)
		}
	}
	for _, c := range report.Conflicts {
		fmt.Printf("  [%s/%s] %s\n", c.Severity, c.Type, c.Description)
		if c.Resolution != "" {
			fmt.Printf("    suggestion: %s\n", c.Resolution)
		}
	}
	if report.Summary != nil {
		fmt.Printf("\nDigest (%s/%s):\n%s\n", report.Summary.Provider, report.Summary.Model, report.Summary.Text)
	}
}
