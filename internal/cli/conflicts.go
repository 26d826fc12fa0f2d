package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	conflictsAll  bool
	conflictsJSON string
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List detected conflicts",
	Long: `Conflicts lists contradictions detected between persisted statements.
By default only unresolved conflicts are shown.`,
	RunE: runConflicts,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <conflict-id>",
	Short: "Mark a conflict as resolved",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
	conflictsCmd.AddCommand(resolveCmd)

	conflictsCmd.Flags().BoolVar(&conflictsAll, "all", false, "include resolved conflicts")
	conflictsCmd.Flags().StringVar(&conflictsJSON, "json", "", "write conflicts as JSON to path (- for stdout)")
}

func runConflicts(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	conflicts, err := eng.Conflicts(context.Background(), !conflictsAll)
	if err != nil {
		return fmt.Errorf("list conflicts: %w", err)
	}

	if conflictsJSON != "" {
		return writeJSON(conflictsJSON, conflicts)
	}

	if len(conflicts) == 0 {
		fmt.Println("No conflicts.")
		return nil
	}
	for _, c := range conflicts {
		status := ""
		if c.Resolved {
			status = " (resolved)"
		}
		fmt.Printf("#%d [%s/%s]%s statements %d/%d\n", c.ID, c.Severity, c.Type, status, c.StatementA, c.StatementB)
		fmt.Printf("  %s\n", c.Description)
		if c.Resolution != "" {
			fmt.Printf("  suggestion: %s\n", c.Resolution)
		}
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid conflict id %q", args[0])
	}

	eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	if err := eng.ResolveConflict(context.Background(), id); err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}
	fmt.Printf("Conflict #%d resolved.\n", id)
	return nil
}
