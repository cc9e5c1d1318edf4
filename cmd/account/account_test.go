package account

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/sci-ledger/cmd/internal/cmdtest"
	"fjacquet/sci-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCommand(t *testing.T) {
	c := cmdtest.Setup(t)
	repo := c.GetRepository()
	ctx := context.Background()

	prop := &models.Property{Name: "Maison"}
	require.NoError(t, repo.CreateProperty(ctx, prop))
	tenant := &models.Tenant{FirstName: "Marc", LastName: "Schlienger", PropertyID: &prop.ID}
	require.NoError(t, repo.CreateTenant(ctx, tenant))
	for _, e := range []models.LedgerEntry{
		{EntryDate: "2024-03-01", Type: models.EntryRentCharge, Debit: decimal.NewFromInt(-650), Credit: decimal.Zero, Description: "Appel loyer 03-01"},
		{EntryDate: "2024-04-01", Type: models.EntryRentCharge, Debit: decimal.NewFromInt(-650), Credit: decimal.Zero, Description: "Appel loyer 04-01"},
		{EntryDate: "2024-04-05", Type: models.EntryPayment, Debit: decimal.Zero, Credit: decimal.NewFromInt(650), MovementID: models.StringPtr("m-1"), Description: "VIR"},
	} {
		e.TenantID, e.PropertyID = tenant.ID, prop.ID
		require.NoError(t, repo.UpsertEntry(ctx, &e))
	}

	from, to, csvPath = "2024-04-01", "", ""
	out, err := cmdtest.Run(t, Cmd, tenant.ID, "--from", "2024-04-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Marc Schlienger")
	assert.Contains(t, out, "opening balance: -650.00")
	assert.Contains(t, out, "balance: -650.00")

	file := filepath.Join(t.TempDir(), "account.csv")
	from, to, csvPath = "", "", ""
	_, err = cmdtest.Run(t, Cmd, tenant.ID, "--csv", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "date;type;description;debit;credit;balance", lines[0])
	assert.True(t, strings.HasSuffix(lines[3], ";-650.00"))
}

func TestAccountCommand_UnknownTenant(t *testing.T) {
	cmdtest.Setup(t)
	from, to, csvPath = "", "", ""
	_, err := cmdtest.Run(t, Cmd, "missing")
	assert.Error(t, err)
}
