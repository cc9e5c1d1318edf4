// Package rent records net rent changes of a property
package rent

import (
	"fmt"

	"fjacquet/sci-ledger/cmd/common"
	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/dateutils"
	"fjacquet/sci-ledger/internal/models"

	"github.com/spf13/cobra"
)

var (
	propertyID string
	effective  string
	amount     string
)

// Cmd represents the rent command
var Cmd = &cobra.Command{
	Use:   "rent",
	Short: "Manage property rents",
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record the net rent of a property from a date on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := dateutils.ParseISODate(effective); err != nil {
			return err
		}
		value, err := common.ParseAmountFlag(amount)
		if err != nil {
			return err
		}
		if !value.Valid {
			return fmt.Errorf("--amount is required")
		}

		repo := root.AppContainer.GetRepository()
		property, err := repo.GetProperty(cmd.Context(), propertyID)
		if err != nil {
			return err
		}

		rec := &models.RentRecord{PropertyID: property.ID, EffectiveDate: effective, Amount: value.Decimal}
		if err := repo.UpsertRent(cmd.Context(), rec); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rent of %s is %s %s from %s\n",
			property.Name, rec.Amount.StringFixed(2), models.Currency, rec.EffectiveDate)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&propertyID, "property", "", "Property id")
	addCmd.Flags().StringVar(&effective, "date", "", "Effective date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&amount, "amount", "", "Net monthly rent")
	_ = addCmd.MarkFlagRequired("property")
	_ = addCmd.MarkFlagRequired("date")
	Cmd.AddCommand(addCmd)
}
