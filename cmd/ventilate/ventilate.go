// Package ventilate splits a pooled subsidy credit across tenants
package ventilate

import (
	"errors"
	"fmt"
	"io"

	"fjacquet/sci-ledger/cmd/common"
	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/ventilation"

	"github.com/spf13/cobra"
)

// Each subcommand binds its own --share slice.
var (
	setShares      []string
	validateShares []string
)

// Cmd represents the ventilate command
var Cmd = &cobra.Command{
	Use:   "ventilate",
	Short: "Ventilate a subsidy credit across tenants",
	Long: `A subsidy body pays several tenants' housing aid in one transfer. Ventilation
splits that credit into one payment per tenant; the shares must add up to the
credit exactly.`,
}

var showCmd = &cobra.Command{
	Use:   "show <movement-id>",
	Short: "Show the current ventilation of a movement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session := root.AppContainer.GetVentilation()
		state, err := session.State(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		draft, err := session.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer session.Cancel(args[0])
		return printDraft(cmd.OutOrStdout(), session, draft, state)
	},
}

var setCmd = &cobra.Command{
	Use:   "set <movement-id> --share tenant=amount...",
	Short: "Check a ventilation without saving it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { setShares = nil }()
		session := root.AppContainer.GetVentilation()
		draft, err := stage(cmd, session, args[0], setShares)
		if err != nil {
			return err
		}
		defer session.Cancel(args[0])

		out := cmd.OutOrStdout()
		if err := printDraft(out, session, draft, ventilation.StateEditing); err != nil {
			return err
		}
		err = session.Check(cmd.Context(), args[0])
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems() {
				_, _ = fmt.Fprintf(out, "problem: %s\n", p)
			}
			return nil
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "ready to validate")
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <movement-id> --share tenant=amount...",
	Short: "Save a ventilation and mark the movement reconciled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { validateShares = nil }()
		session := root.AppContainer.GetVentilation()
		if _, err := stage(cmd, session, args[0], validateShares); err != nil {
			return err
		}
		defer session.Cancel(args[0])

		if err := session.Validate(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "movement %s ventilated\n", args[0])
		return nil
	},
}

// stage opens the movement and replaces its rows with the --share values.
// Without --share the persisted ventilation is kept.
func stage(cmd *cobra.Command, session *ventilation.Session, movementID string, shares []string) (ventilation.Draft, error) {
	parsed, err := common.ParseShares(shares)
	if err != nil {
		return ventilation.Draft{}, err
	}
	draft, err := session.Open(cmd.Context(), movementID)
	if err != nil {
		return ventilation.Draft{}, err
	}
	if len(parsed) == 0 {
		return draft, nil
	}
	for i := len(draft.Rows) - 1; i >= 0; i-- {
		if err := session.RemoveRow(movementID, i); err != nil {
			return ventilation.Draft{}, err
		}
	}
	for _, s := range parsed {
		if err := session.AddRow(movementID, s.TenantID, s.Amount); err != nil {
			return ventilation.Draft{}, err
		}
	}
	draft, _ = session.Draft(movementID)
	return draft, nil
}

func printDraft(w io.Writer, session *ventilation.Session, d ventilation.Draft, state ventilation.State) error {
	_, _ = fmt.Fprintf(w, "%s  %s  credit %s %s  [%s]\n", d.Date, d.Label, models.FormatAmount(d.Credit), models.Currency, state)
	if !session.IsSubsidy(d.Label) {
		_, _ = fmt.Fprintln(w, "note: label carries no subsidy marker")
	}
	tw := common.NewTable(w, "#", "TENANT", "AMOUNT")
	for i, r := range d.Rows {
		common.Row(tw, fmt.Sprint(i+1), r.TenantID, models.FormatAmount(r.Amount))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "total %s %s\n", d.Total().StringFixed(2), models.Currency)
	return nil
}

func init() {
	const shareUsage = "Tenant share as tenant=amount (repeatable)"
	setCmd.Flags().StringArrayVar(&setShares, "share", nil, shareUsage)
	validateCmd.Flags().StringArrayVar(&validateShares, "share", nil, shareUsage)
	Cmd.AddCommand(showCmd, setCmd, validateCmd)
}
