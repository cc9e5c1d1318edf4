// Package property manages the company's properties
package property

import (
	"fmt"

	"fjacquet/sci-ledger/cmd/common"
	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/models"

	"github.com/spf13/cobra"
)

var prop models.Property

// Cmd represents the property command
var Cmd = &cobra.Command{
	Use:   "property",
	Short: "Manage properties",
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a property",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := prop
		if err := root.AppContainer.GetRepository().CreateProperty(cmd.Context(), &p); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), p.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List properties",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		props, err := root.AppContainer.GetRepository().ListProperties(cmd.Context())
		if err != nil {
			return err
		}
		tw := common.NewTable(cmd.OutOrStdout(), "ID", "NAME", "TYPE", "ADDRESS")
		for _, p := range props {
			common.Row(tw, p.ID, p.Name, p.Type, p.Address)
		}
		return tw.Flush()
	},
}

func init() {
	addCmd.Flags().StringVar(&prop.Name, "name", "", "Name")
	addCmd.Flags().StringVar(&prop.Type, "type", "", "Type (flat, house, shop...)")
	addCmd.Flags().IntVar(&prop.Surface, "surface", 0, "Surface in m²")
	addCmd.Flags().StringVar(&prop.Address, "address", "", "Address")
	_ = addCmd.MarkFlagRequired("name")
	Cmd.AddCommand(addCmd, listCmd)
}
