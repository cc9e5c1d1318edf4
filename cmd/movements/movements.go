// Package movements lists and adds bank movements
package movements

import (
	"fmt"

	"fjacquet/sci-ledger/cmd/common"
	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/importer"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"

	"github.com/spf13/cobra"
)

var (
	filter repository.MovementFilter

	manual struct {
		date, label, debit, credit     string
		category, subCategory, counter string
		tenant                         string
	}
)

// Cmd represents the movements command
var Cmd = &cobra.Command{
	Use:   "movements",
	Short: "List or add bank movements",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bank movements, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		movements, err := root.AppContainer.GetRepository().ListMovements(cmd.Context(), filter)
		if err != nil {
			return err
		}
		tw := common.NewTable(cmd.OutOrStdout(), "ID", "DATE", "LABEL", "DEBIT", "CREDIT", "CATEGORY", "TENANT", "RECONCILED")
		for _, m := range movements {
			common.Row(tw, m.ID, m.Date, m.Label, models.FormatAmount(m.Debit), models.FormatAmount(m.Credit),
				common.Deref(m.Category), common.Deref(m.TenantID), fmt.Sprint(m.Reconciled))
		}
		return tw.Flush()
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a movement by hand",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := root.Session()
		if err != nil {
			return err
		}
		debit, err := common.ParseAmountFlag(manual.debit)
		if err != nil {
			return err
		}
		credit, err := common.ParseAmountFlag(manual.credit)
		if err != nil {
			return err
		}

		m, err := root.AppContainer.GetImporter().AddManual(cmd.Context(), session, importer.ManualMovement{
			Date:   manual.date,
			Label:  manual.label,
			Debit:  debit,
			Credit: credit,
			Classification: models.Classification{
				Category:     manual.category,
				SubCategory:  manual.subCategory,
				Counterparty: manual.counter,
			},
			TenantID: manual.tenant,
		})
		if err != nil {
			return err
		}
		if m == nil {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "movement already recorded")
			return nil
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), m.ID)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&filter.From, "from", "", "First date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&filter.To, "to", "", "Last date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&filter.TenantID, "tenant", "", "Only movements of this tenant")
	listCmd.Flags().BoolVar(&filter.UnreconciledOnly, "unreconciled", false, "Only movements not yet ventilated")
	listCmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of movements")

	addCmd.Flags().StringVar(&manual.date, "date", "", "Date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&manual.label, "label", "", "Label")
	addCmd.Flags().StringVar(&manual.debit, "debit", "", "Debit amount")
	addCmd.Flags().StringVar(&manual.credit, "credit", "", "Credit amount")
	addCmd.Flags().StringVar(&manual.category, "category", "", "Category (classified from the label when empty)")
	addCmd.Flags().StringVar(&manual.subCategory, "sub-category", "", "Sub-category")
	addCmd.Flags().StringVar(&manual.counter, "counterparty", "", "Counterparty")
	addCmd.Flags().StringVar(&manual.tenant, "tenant", "", "Tenant id (resolved from the label when empty)")
	_ = addCmd.MarkFlagRequired("date")
	_ = addCmd.MarkFlagRequired("label")

	Cmd.AddCommand(listCmd, addCmd)
}
