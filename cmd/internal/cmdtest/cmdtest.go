// Package cmdtest runs commands against a throwaway container in tests.
package cmdtest

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/internal/config"
	"fjacquet/sci-ledger/internal/container"
	"fjacquet/sci-ledger/internal/logging"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// Setup installs a container backed by a fresh SQLite file and returns it.
// The operator is the local user "gerant".
func Setup(t testing.TB) *container.Container {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(dir, "ledger.db")
	cfg.Files.TenantsFile = filepath.Join(dir, "tenants.yaml")
	cfg.Files.RulesFile = filepath.Join(dir, "rules.yaml")
	cfg.Blob.Root = filepath.Join(dir, "documents")
	cfg.Blob.SigningKey = "test-key"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.LocalUser = "gerant"

	logger := logging.NewMockLogger()
	c, err := container.NewContainerWithLogger(context.Background(), cfg, logger)
	require.NoError(t, err)

	previous, previousLog := root.AppContainer, root.Log
	root.AppContainer, root.Log = c, logger
	t.Cleanup(func() {
		_ = c.Close()
		root.AppContainer, root.Log = previous, previousLog
	})
	return c
}

// Run executes cmd with args and returns what it printed.
func Run(t testing.TB, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
