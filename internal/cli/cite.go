package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksalter/deontica/internal/model"
)

var (
	citeDate     string
	citeStrength string
	citeJSON     string
)

var citeCmd = &cobra.Command{
	Use:   "cite",
	Short: "Manage citation records between cases",
}

var citeAddCmd = &cobra.Command{
	Use:   "add <citing-case> <cited-case> <treatment>",
	Short: "Record a citation with its treatment",
	Long: `Add records that one case cited another with a given treatment.
Treatments: followed, distinguished, criticized, questioned, overruled,
superseded. Strength defaults to the treatment's weight when omitted.

Example:
  deontica cite add "Smith v. Jones" "Doe v. Roe" overruled --date 2019-06-14`,
	Args: cobra.ExactArgs(3),
	RunE: runCiteAdd,
}

var citeValidateCmd = &cobra.Command{
	Use:   "validate <case>",
	Short: "Compute a case's precedential status and strength",
	Args:  cobra.ExactArgs(1),
	RunE:  runCiteValidate,
}

var citeLineageCmd = &cobra.Command{
	Use:   "lineage <case>",
	Short: "Show a case's citation lineage",
	Args:  cobra.ExactArgs(1),
	RunE:  runCiteLineage,
}

func init() {
	rootCmd.AddCommand(citeCmd)
	citeCmd.AddCommand(citeAddCmd)
	citeCmd.AddCommand(citeValidateCmd)
	citeCmd.AddCommand(citeLineageCmd)

	citeAddCmd.Flags().StringVar(&citeDate, "date", "", "citation date as YYYY-MM-DD (default today)")
	citeAddCmd.Flags().StringVar(&citeStrength, "strength", "", "override strength in [0,1]")
	citeValidateCmd.Flags().StringVar(&citeJSON, "json", "", "write status as JSON to path (- for stdout)")
	citeLineageCmd.Flags().StringVar(&citeJSON, "json", "", "write lineage as JSON to path (- for stdout)")
}

func runCiteAdd(cmd *cobra.Command, args []string) error {
	treatment := model.Treatment(args[2])
	if !treatment.Valid() {
		return fmt.Errorf("unknown treatment %q", args[2])
	}

	date := time.Now().UTC()
	if citeDate != "" {
		parsed, err := time.Parse("2006-01-02", citeDate)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", citeDate, err)
		}
		date = parsed
	}

	var strength *float64
	if citeStrength != "" {
		v, err := strconv.ParseFloat(citeStrength, 64)
		if err != nil || v < 0 || v > 1 {
			return fmt.Errorf("strength must be a number in [0,1], got %q", citeStrength)
		}
		strength = &v
	}

	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	c, err := eng.AddCitation(context.Background(), args[0], args[1], treatment, strength, date)
	if err != nil {
		return fmt.Errorf("add citation: %w", err)
	}
	fmt.Printf("Recorded: %s %s %s (strength %.2f)\n", c.CitingCase, c.Treatment, c.CitedCase, c.Strength)
	return nil
}

func runCiteValidate(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	status, err := eng.ValidateCase(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("validate case: %w", err)
	}

	if citeJSON != "" {
		return writeJSON(citeJSON, status)
	}

	fmt.Printf("Case:      %s\n", status.CaseID)
	fmt.Printf("Status:    %s\n", status.Status)
	fmt.Printf("Strength:  %.2f\n", status.PrecedentStrength)
	fmt.Printf("Citations: %d\n", status.TotalCitations)
	for _, w := range status.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}

func runCiteLineage(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	lineage, err := eng.Lineage(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("trace lineage: %w", err)
	}

	if citeJSON != "" {
		return writeJSON(citeJSON, lineage)
	}

	fmt.Printf("Lineage for %s\n", lineage.CaseID)
	fmt.Printf("Cites (%d):\n", len(lineage.Cites))
	for _, e := range lineage.Cites {
		fmt.Printf("  %s  %s  %s\n", e.Treatment, e.CaseID, e.Date.Format("2006-01-02"))
	}
	fmt.Printf("Cited by (%d):\n", len(lineage.CitedBy))
	for _, e := range lineage.CitedBy {
		fmt.Printf("  %s  %s  %s\n", e.Treatment, e.CaseID, e.Date.Format("2006-01-02"))
	}
	return nil
}
