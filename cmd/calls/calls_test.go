package calls

import (
	"context"
	"testing"

	"fjacquet/sci-ledger/cmd/internal/cmdtest"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallsCommand(t *testing.T) {
	c := cmdtest.Setup(t)
	repo := c.GetRepository()
	ctx := context.Background()

	prop := &models.Property{Name: "Maison"}
	require.NoError(t, repo.CreateProperty(ctx, prop))
	require.NoError(t, repo.UpsertRent(ctx, &models.RentRecord{PropertyID: prop.ID, EffectiveDate: "2024-01-01", Amount: decimal.NewFromInt(650)}))
	housed := &models.Tenant{FirstName: "Marc", LastName: "Schlienger", PropertyID: &prop.ID,
		Charges: decimal.NewNullDecimal(decimal.NewFromInt(50))}
	require.NoError(t, repo.CreateTenant(ctx, housed))
	require.NoError(t, repo.CreateTenant(ctx, &models.Tenant{FirstName: "Anne", LastName: "Dupont"}))

	for i := 0; i < 2; i++ {
		month = ""
		out, err := cmdtest.Run(t, Cmd, "--month", "2024-05")
		require.NoError(t, err)
		assert.Contains(t, out, "entries written: 2")
		assert.Contains(t, out, "tenants without property")
	}

	entries, err := repo.ListEntries(ctx, repository.EntryFilter{TenantID: housed.ID})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCallsCommand_BadMonth(t *testing.T) {
	cmdtest.Setup(t)
	month = ""
	_, err := cmdtest.Run(t, Cmd, "--month", "mai")
	assert.Error(t, err)
}
