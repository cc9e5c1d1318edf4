package ledger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amount(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

type fixture struct {
	repo     *repository.Repository
	property *models.Property
	tenant   *models.Tenant
	homeless *models.Tenant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo, err := repository.OpenMemory(logging.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	prop := &models.Property{Name: "Maison"}
	require.NoError(t, repo.CreateProperty(ctx, prop))
	tenant := &models.Tenant{FirstName: "Marie", LastName: "Schlienger", PropertyID: &prop.ID,
		Charges: decimal.NewNullDecimal(dec("40"))}
	require.NoError(t, repo.CreateTenant(ctx, tenant))
	homeless := &models.Tenant{FirstName: "Léa", LastName: "Arnaud"}
	require.NoError(t, repo.CreateTenant(ctx, homeless))

	return &fixture{repo: repo, property: prop, tenant: tenant, homeless: homeless}
}

func TestEntryForMovement(t *testing.T) {
	tenantID := "t-1"
	tests := []struct {
		name   string
		m      models.BankTransaction
		ok     bool
		typ    models.EntryType
		debit  string
		credit string
	}{
		{"credit is a payment", models.BankTransaction{ID: "m1", TenantID: &tenantID, Credit: amount("650")}, true, models.EntryPayment, "0", "650"},
		{"debit is a negative refund", models.BankTransaction{ID: "m2", TenantID: &tenantID, Debit: amount("-120")}, true, models.EntryRefund, "-120", "0"},
		{"unsigned debit is negated", models.BankTransaction{ID: "m3", TenantID: &tenantID, Debit: amount("120")}, true, models.EntryRefund, "-120", "0"},
		{"unresolved", models.BankTransaction{ID: "m4", Credit: amount("10")}, false, "", "", ""},
		{"no amounts", models.BankTransaction{ID: "m5", TenantID: &tenantID}, false, "", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, ok := EntryForMovement(tc.m, "p-1")
			assert.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.typ, e.Type)
			assert.True(t, e.Debit.Equal(dec(tc.debit)), "debit %s", e.Debit)
			assert.True(t, e.Credit.Equal(dec(tc.credit)), "credit %s", e.Credit)
			require.NotNil(t, e.MovementID)
			assert.Equal(t, tc.m.ID, *e.MovementID)
			assert.Equal(t, "p-1", e.PropertyID)
		})
	}
}

func TestPostMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logger := logging.NewMockLogger()

	movements := []models.BankTransaction{
		{ID: "m1", Date: "2024-04-05", Label: "VIR SCHLIENGER", Credit: amount("650"), TenantID: &f.tenant.ID},
		{ID: "m2", Date: "2024-04-06", Label: "VIR ARNAUD", Credit: amount("300"), TenantID: &f.homeless.ID},
		{ID: "m3", Date: "2024-04-07", Label: "FRAIS", Debit: amount("-4.5")},
	}

	report, err := NewPoster(logger).PostMovements(ctx, f.repo, movements)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Posted)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, report.Warnings, 1)
	assert.True(t, logger.HasEntry("WARN", "Tenant has no property, movement not posted"))

	entries, err := f.repo.ListEntries(ctx, repository.EntryFilter{TenantID: f.tenant.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "VIR SCHLIENGER", entries[0].Description)
	assert.Equal(t, f.property.ID, entries[0].PropertyID)

	// posting the same movement again replaces the entry
	_, err = NewPoster(logger).PostMovements(ctx, f.repo, movements[:1])
	require.NoError(t, err)
	entries, err = f.repo.ListEntries(ctx, repository.EntryFilter{TenantID: f.tenant.ID})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type failingStore struct{ err error }

func (s failingStore) TenantProperty(context.Context, string) (string, error) { return "", s.err }

func (s failingStore) UpsertEntry(context.Context, *models.LedgerEntry) error { return s.err }

func TestPostMovements_StorageErrorAborts(t *testing.T) {
	tenantID := "t"
	boom := errors.New("connection reset")
	_, err := NewPoster(logging.NewMockLogger()).PostMovements(context.Background(), failingStore{boom},
		[]models.BankTransaction{{ID: "m", TenantID: &tenantID, Credit: amount("1")}})
	assert.ErrorIs(t, err, boom)
}

func TestGenerateCalls_IdempotentAndTracksRent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gen := NewCallGenerator(f.repo, logging.NewMockLogger())
	month := time.Date(2024, time.April, 17, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.repo.UpsertRent(ctx, &models.RentRecord{PropertyID: f.property.ID, EffectiveDate: "2023-01-01", Amount: dec("700")}))

	report, err := gen.Generate(ctx, month)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", report.Month)
	assert.Equal(t, 2, report.Written)
	assert.Equal(t, []string{f.homeless.ID}, report.Skipped)

	require.NoError(t, f.repo.UpsertRent(ctx, &models.RentRecord{PropertyID: f.property.ID, EffectiveDate: "2024-04-01", Amount: dec("720")}))
	_, err = gen.Generate(ctx, month)
	require.NoError(t, err)

	entries, err := f.repo.ListEntries(ctx, repository.EntryFilter{TenantID: f.tenant.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byType := map[models.EntryType]models.LedgerEntry{}
	for _, e := range entries {
		byType[e.Type] = e
	}
	rent := byType[models.EntryRentCharge]
	assert.Equal(t, "2024-04-01", rent.EntryDate)
	assert.True(t, rent.Debit.Equal(dec("-720")))
	assert.Equal(t, "Appel loyer 04-01 (maj 2024-04-01)", rent.Description)

	charges := byType[models.EntryChargesCharge]
	assert.True(t, charges.Debit.Equal(dec("-40")))
	assert.Equal(t, "Appel charges 04-01", charges.Description)
}

func TestGenerateCalls_NoRentStillIssuesCharges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := NewCallGenerator(f.repo, logging.NewMockLogger()).Generate(ctx, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)

	entries, err := f.repo.ListEntries(ctx, repository.EntryFilter{TenantID: f.tenant.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryChargesCharge, entries[0].Type)
}

func TestBuildStatement_RunningBalance(t *testing.T) {
	entries := []models.LedgerEntry{
		{EntryDate: "2024-03-01", Type: models.EntryRentCharge, Debit: dec("-700"), Credit: decimal.Zero},
		{EntryDate: "2024-03-01", Type: models.EntryChargesCharge, Debit: dec("-40"), Credit: decimal.Zero},
		{EntryDate: "2024-03-05", Type: models.EntryPayment, Debit: decimal.Zero, Credit: dec("740")},
		{EntryDate: "2024-03-20", Type: models.EntryRefund, Debit: dec("-100"), Credit: decimal.Zero},
	}

	st := BuildStatement("t", "", "", decimal.Zero, entries)
	require.Len(t, st.Lines, 4)
	expected := []string{"-700", "-740", "0", "-100"}
	for i, want := range expected {
		assert.True(t, st.Lines[i].Balance.Equal(dec(want)), "line %d: %s", i, st.Lines[i].Balance)
	}
	assert.True(t, st.Balance.Equal(Balance(entries)))
	assert.True(t, st.TotalDebit.Equal(dec("-840")))
	assert.True(t, st.TotalCredit.Equal(dec("740")))
}

func TestAccount_WindowCarriesOpeningBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1, m2 := "m1", "m2"

	for _, e := range []models.LedgerEntry{
		{EntryDate: "2024-03-01", Type: models.EntryRentCharge, Debit: dec("-700"), Credit: decimal.Zero},
		{EntryDate: "2024-03-05", Type: models.EntryPayment, Debit: decimal.Zero, Credit: dec("650"), MovementID: &m1},
		{EntryDate: "2024-04-01", Type: models.EntryRentCharge, Debit: dec("-700"), Credit: decimal.Zero},
		{EntryDate: "2024-04-04", Type: models.EntryPayment, Debit: decimal.Zero, Credit: dec("700"), MovementID: &m2},
	} {
		e := e
		e.TenantID = f.tenant.ID
		e.PropertyID = f.property.ID
		require.NoError(t, f.repo.UpsertEntry(ctx, &e))
	}

	full, err := Account(ctx, f.repo, f.tenant.ID, "", "")
	require.NoError(t, err)
	assert.Len(t, full.Lines, 4)
	assert.True(t, full.Balance.Equal(dec("-50")))

	april, err := Account(ctx, f.repo, f.tenant.ID, "2024-04-01", "2024-04-30")
	require.NoError(t, err)
	require.Len(t, april.Lines, 2)
	assert.True(t, april.Opening.Equal(dec("-50")))
	assert.True(t, april.Lines[0].Balance.Equal(dec("-750")))
	assert.True(t, april.Balance.Equal(full.Balance))

	var buf bytes.Buffer
	require.NoError(t, april.WriteCSV(&buf, ';'))
	assert.Equal(t,
		"date;type;description;debit;credit;balance\n"+
			"2024-04-01;rent_charge;;-700.00;0.00;-750.00\n"+
			"2024-04-04;payment;;0.00;700.00;-50.00\n",
		buf.String())
}
