// Package invoice attaches supplier invoices and their documents
package invoice

import (
	"fmt"
	"os"
	"time"

	"fjacquet/sci-ledger/cmd/common"
	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/invoices"

	"github.com/spf13/cobra"
)

var (
	attach struct {
		number, supplier, due, amount string
		property, movement, file      string
	}
	ttl time.Duration
)

// Cmd represents the invoice command
var Cmd = &cobra.Command{
	Use:   "invoice",
	Short: "Manage supplier invoices and their documents",
}

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Record an invoice, store its document and link it to a movement",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := common.ParseAmountFlag(attach.amount)
		if err != nil {
			return err
		}
		a := invoices.Attachment{
			Number:     attach.number,
			Supplier:   attach.supplier,
			DueDate:    attach.due,
			Amount:     amount.Decimal,
			PropertyID: attach.property,
			MovementID: attach.movement,
		}
		if attach.file != "" {
			f, err := os.Open(attach.file) // #nosec G304 -- CLI tool requires user-provided file paths
			if err != nil {
				return fmt.Errorf("failed to open document: %w", err)
			}
			defer func() { _ = f.Close() }()
			a.FileName = attach.file
			a.Content = f
		}

		inv, doc, err := root.AppContainer.GetInvoices().Attach(cmd.Context(), a)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "invoice: %s\n", inv.ID)
		if doc != nil {
			_, _ = fmt.Fprintf(out, "document: %s\n", doc.ID)
		}
		return nil
	},
}

var urlCmd = &cobra.Command{
	Use:   "url <document-id>",
	Short: "Print a signed preview link to a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := root.AppContainer.GetInvoices().PreviewURL(cmd.Context(), args[0], ttl)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	attachCmd.Flags().StringVar(&attach.number, "number", "", "Invoice number")
	attachCmd.Flags().StringVar(&attach.supplier, "supplier", "", "Supplier")
	attachCmd.Flags().StringVar(&attach.due, "due", "", "Due date (YYYY-MM-DD)")
	attachCmd.Flags().StringVar(&attach.amount, "amount", "", "Amount")
	attachCmd.Flags().StringVar(&attach.property, "property", "", "Property id")
	attachCmd.Flags().StringVar(&attach.movement, "movement", "", "Movement that paid the invoice")
	attachCmd.Flags().StringVar(&attach.file, "file", "", "Scanned invoice to store")
	_ = attachCmd.MarkFlagRequired("number")

	urlCmd.Flags().DurationVar(&ttl, "ttl", 0, "Link lifetime (default: blob.url_ttl)")
	Cmd.AddCommand(attachCmd, urlCmd)
}
