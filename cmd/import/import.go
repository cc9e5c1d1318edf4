// Package importcmd handles the import of bank statement CSV exports
package importcmd

import (
	"fmt"
	"os"

	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/logging"

	"github.com/spf13/cobra"
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import <statement.csv>",
	Short: "Import a bank statement CSV export",
	Long: `Import the bank's semicolon-delimited CSV export. Movements already imported
are skipped, tenant payments are posted to the tenant accounts.`,
	Args: cobra.ExactArgs(1),
	RunE: importFunc,
}

func importFunc(cmd *cobra.Command, args []string) error {
	session, err := root.Session()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0]) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	root.Log.Info("Importing bank statement", logging.F(logging.FieldFile, args[0]))
	report, err := root.AppContainer.GetImporter().Import(cmd.Context(), session, f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "parsed: %d\ninserted: %d\nduplicates: %d\nposted: %d\nunresolved: %d\n",
		report.Parsed, report.Inserted, report.Duplicates, report.Posted, report.Unresolved)
	for _, w := range report.Warnings {
		_, _ = fmt.Fprintf(out, "warning: %v\n", w)
	}
	return nil
}
