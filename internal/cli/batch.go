package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksalter/deontica/internal/fetch"
	"github.com/ksalter/deontica/internal/worker"
)

var (
	batchTopic string
	batchCase  string
	batchJSON  string
)

var batchCmd = &cobra.Command{
	Use:   "batch <source-list>",
	Short: "Ingest a list of files and URLs concurrently",
	Long: `Batch reads a newline-delimited list of sources (file paths or URLs,
# comments and blank lines ignored) and ingests each one. URL fetches
respect robots.txt and are rate limited per host. A failing source does
not stop the batch.

Example:
  deontica batch sources.txt --topic housing`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchTopic, "topic", "", "topic to group ingested statements under")
	batchCmd.Flags().StringVar(&batchCase, "case", "", "case identifier applied to every source")
	batchCmd.Flags().StringVar(&batchJSON, "json", "", "write per-source results as JSON to path (- for stdout)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	sources, err := worker.ReadSourceList(args[0])
	if err != nil {
		return fmt.Errorf("read source list: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources in %s", args[0])
	}

	eng, cfg, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	fetcher := fetch.NewFetcher(cfg.HTTP)
	processor := worker.NewBatchProcessor(eng, fetcher, cfg.Concurrency)

	results := processor.Process(context.Background(), sources, batchTopic, batchCase)

	type sourceOutcome struct {
		Source     string `json:"source"`
		Statements int    `json:"statements"`
		Error      string `json:"error,omitempty"`
	}
	outcomes := make([]sourceOutcome, 0, len(results))

	var failed int
	for _, r := range results {
		out := sourceOutcome{Source: r.Source, Statements: r.Statements}
		if r.Error != nil {
			out.Error = r.Error.Error()
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", r.Source, r.Error)
		} else {
			fmt.Printf("OK   %s: %d statements\n", r.Source, r.Statements)
		}
		outcomes = append(outcomes, out)
	}
	fmt.Printf("Processed %d sources, %d failed.\n", len(results), failed)

	if batchJSON != "" {
		return writeJSON(batchJSON, outcomes)
	}
	if failed == len(results) {
		return fmt.Errorf("all sources failed")
	}
	return nil
}
