// Package calls generates the monthly rent and charges calls
package calls

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/dateutils"

	"github.com/spf13/cobra"
)

var month string

// Cmd represents the calls command
var Cmd = &cobra.Command{
	Use:   "calls",
	Short: "Generate the monthly rent and charges calls",
	Long: `Write one rent call and one charges call per tenant for the month, dated the
first of the month. Running it again for the same month overwrites the amounts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		at := time.Now()
		if month != "" {
			var err error
			if at, err = dateutils.ParseMonth(month); err != nil {
				return err
			}
		}

		report, err := root.AppContainer.GetCallGenerator().Generate(cmd.Context(), at)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "month: %s\nentries written: %d\n", report.Month, report.Written)
		if len(report.Skipped) > 0 {
			_, _ = fmt.Fprintf(out, "tenants without property: %s\n", strings.Join(report.Skipped, ", "))
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&month, "month", "", "Month to call (YYYY-MM, default: current month)")
}
