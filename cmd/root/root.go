// Package root contains the root command for the application
package root

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/sci-ledger/internal/auth"
	"fjacquet/sci-ledger/internal/config"
	"fjacquet/sci-ledger/internal/container"
	"fjacquet/sci-ledger/internal/logging"

	"github.com/spf13/cobra"
)

// TokenEnv is read when --token is not given.
const TokenEnv = "SCI_AUTH_TOKEN"

// CommonFlags represents the flags that are common to every command
type CommonFlags struct {
	ConfigFile string
	Token      string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// AppContainer is built before any subcommand runs. Tests may set it
	// beforehand to run commands against their own container.
	AppContainer *container.Container

	// SharedFlags holds the persistent flags
	SharedFlags = CommonFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "sci-ledger",
		Short: "Bank statement reconciliation for a rental property company.",
		Long: `sci-ledger imports the bank's CSV export, classifies each movement,
links rent payments to tenants and keeps every tenant's account balance.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if AppContainer != nil {
				return nil
			}
			config.LoadEnv(Log)

			cfg, err := config.InitializeConfigFrom(SharedFlags.ConfigFile)
			if err != nil {
				return err
			}
			Log = logging.Wrap(config.ConfigureLoggingFromConfig(cfg))

			c, err := container.NewContainerWithLogger(cmd.Context(), cfg, Log)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			AppContainer = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer == nil {
				return
			}
			if err := AppContainer.Close(); err != nil {
				Log.WithError(err).Warn("Failed to close resources")
			}
			AppContainer = nil
		},
	}
)

// Init initializes the root command and its persistent flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default: config.yaml in $HOME/.sci-ledger, .sci-ledger or .)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Token, "token", "", "Session token (default: $"+TokenEnv+", then auth.local_user)")
}

// Session resolves the operator of the current command.
func Session() (*auth.Session, error) {
	token := SharedFlags.Token
	if strings.TrimSpace(token) == "" {
		token = os.Getenv(TokenEnv)
	}
	return AppContainer.GetAuthenticator().Resolve(token)
}
