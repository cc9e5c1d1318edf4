// Package token mints session tokens for the CLI and the API
package token

import (
	"fmt"
	"time"

	"fjacquet/sci-ledger/cmd/root"

	"github.com/spf13/cobra"
)

var (
	email string
	ttl   time.Duration
)

// Cmd represents the token command
var Cmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a session token signed with auth.jwt_secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := root.AppContainer.GetAuthenticator().Mint(args[0], email, ttl)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&email, "email", "", "Email carried in the token")
	Cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime, 0 for none")
}
