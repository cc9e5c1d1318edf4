// Package serve runs the HTTP server
package serve

import (
	"errors"
	"os/signal"
	"syscall"

	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/config"
	"fjacquet/sci-ledger/internal/feed"
	"fjacquet/sci-ledger/internal/repository"
	"fjacquet/sci-ledger/internal/server"

	"github.com/spf13/cobra"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve document previews and the movements API",
	Long: `Serve signed document previews under /blobs and a read API under /api.
On Postgres, changes made by other processes reach the API through
LISTEN/NOTIFY.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := root.AppContainer
		cfg := c.GetConfig()
		if err := checkSecrets(cfg); err != nil {
			return err
		}
		if addr == "" {
			addr = cfg.Server.Addr
		}

		if repository.IsPostgresDSN(cfg.Database.DSN) {
			listener := feed.NewPGListener(cfg.Database.DSN, repository.NotifyChannel, c.GetBroker(), root.Log)
			go func() { _ = listener.Run(ctx) }()
		}

		srv := server.New(c.GetRepository(), c.GetBroker(), c.GetBlobStore(), c.GetAuthenticator(), root.Log)
		return srv.Run(ctx, addr)
	},
}

// checkSecrets refuses to expose documents or the API without signing keys.
func checkSecrets(cfg *config.Config) error {
	if cfg.Blob.SigningKey == "" {
		return errors.New("blob.signing_key must be set to serve documents")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set to serve the API")
	}
	return nil
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
}
