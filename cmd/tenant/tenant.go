// Package tenant manages tenants and the surname keywords that identify
// their bank transfers
package tenant

import (
	"fmt"
	"strings"

	"fjacquet/sci-ledger/cmd/common"
	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"

	"github.com/spf13/cobra"
)

var (
	tenant     models.Tenant
	propertyID string
	charges    string
	keyword    string
)

// Cmd represents the tenant command
var Cmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a tenant",
	Long: `Add a tenant. With --keyword, the keyword is appended to the tenants file so
that transfers whose label contains it are linked to the new tenant.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := tenant
		t.PropertyID = models.StringPtr(strings.TrimSpace(propertyID))
		amount, err := common.ParseAmountFlag(charges)
		if err != nil {
			return err
		}
		t.Charges = amount

		if err := root.AppContainer.GetRepository().CreateTenant(cmd.Context(), &t); err != nil {
			return err
		}
		if keyword != "" {
			if err := addKeyword(keyword, t.ID); err != nil {
				return err
			}
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), t.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenants, err := root.AppContainer.GetRepository().ListTenants(cmd.Context())
		if err != nil {
			return err
		}
		tw := common.NewTable(cmd.OutOrStdout(), "ID", "NAME", "PROPERTY", "CHARGES")
		for _, t := range tenants {
			common.Row(tw, t.ID, t.FullName(), common.Deref(t.PropertyID), models.FormatAmount(t.Charges))
		}
		return tw.Flush()
	},
}

func addKeyword(keyword, tenantID string) error {
	store := root.AppContainer.GetStore()
	keywords, err := store.LoadTenantKeywords()
	if err != nil {
		return err
	}
	keywords = append(keywords, models.TenantKeyword{Keyword: strings.ToUpper(strings.TrimSpace(keyword)), TenantID: tenantID})
	if err := store.SaveTenantKeywords(keywords); err != nil {
		return err
	}
	root.Log.Info("Tenant keyword saved",
		logging.F(logging.FieldKeyword, keyword),
		logging.F(logging.FieldTenant, tenantID))
	return nil
}

func init() {
	addCmd.Flags().StringVar(&tenant.FirstName, "first-name", "", "First name")
	addCmd.Flags().StringVar(&tenant.LastName, "last-name", "", "Last name")
	addCmd.Flags().StringVar(&propertyID, "property", "", "Property id")
	addCmd.Flags().StringVar(&tenant.StartDate, "start-date", "", "Lease start (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&tenant.Insurance, "insurance", "", "Insurance reference")
	addCmd.Flags().StringVar(&charges, "charges", "", "Fixed monthly charges")
	addCmd.Flags().StringVar(&keyword, "keyword", "", "Surname keyword found in the tenant's transfers")
	_ = addCmd.MarkFlagRequired("last-name")
	Cmd.AddCommand(addCmd, listCmd)
}
