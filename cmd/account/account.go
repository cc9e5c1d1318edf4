// Package account prints a tenant's account with its running balance
package account

import (
	"fmt"
	"os"

	"fjacquet/sci-ledger/cmd/common"
	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/ledger"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"

	"github.com/spf13/cobra"
)

var (
	from    string
	to      string
	csvPath string
)

// Cmd represents the account command
var Cmd = &cobra.Command{
	Use:   "account <tenant-id>",
	Short: "Show a tenant's account and running balance",
	Long: `Show a tenant's ledger entries in date order with the balance after each one.
A negative balance means the tenant owes money. With --from, the balance of
earlier entries is carried as the opening balance.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := root.AppContainer.GetRepository()
		tenant, err := repo.GetTenant(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		stmt, err := ledger.Account(cmd.Context(), repo, tenant.ID, from, to)
		if err != nil {
			return err
		}

		if csvPath != "" {
			return writeCSV(stmt)
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "%s\nopening balance: %s %s\n", tenant.FullName(), stmt.Opening.StringFixed(2), models.Currency)
		tw := common.NewTable(out, "DATE", "TYPE", "DESCRIPTION", "DEBIT", "CREDIT", "BALANCE")
		for _, l := range stmt.Lines {
			common.Row(tw, l.EntryDate, string(l.Type), l.Description,
				l.Debit.StringFixed(2), l.Credit.StringFixed(2), l.Balance.StringFixed(2))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "total debit: %s\ntotal credit: %s\nbalance: %s %s\n",
			stmt.TotalDebit.StringFixed(2), stmt.TotalCredit.StringFixed(2), stmt.Balance.StringFixed(2), models.Currency)
		return nil
	},
}

func writeCSV(stmt *ledger.Statement) error {
	f, err := os.Create(csvPath) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", csvPath, err)
	}
	delim := root.AppContainer.GetConfig().DelimiterRune()
	if err := stmt.WriteCSV(f, delim); err != nil {
		_ = f.Close()
		return err
	}
	root.Log.Info("Account exported",
		logging.F(logging.FieldFile, csvPath),
		logging.F(logging.FieldCount, len(stmt.Lines)))
	return f.Close()
}

func init() {
	Cmd.Flags().StringVar(&from, "from", "", "First date (YYYY-MM-DD)")
	Cmd.Flags().StringVar(&to, "to", "", "Last date (YYYY-MM-DD)")
	Cmd.Flags().StringVar(&csvPath, "csv", "", "Write the statement to this CSV file")
}
