package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	tables []string
}

func (p *recordingPublisher) Publish(table string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables = append(p.tables, table)
}

func (p *recordingPublisher) Tables() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.tables...)
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := OpenMemory(logging.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedTenant(t *testing.T, repo *Repository) (*models.Property, *models.Tenant) {
	t.Helper()
	ctx := context.Background()
	prop := &models.Property{Name: "Appartement 1", Type: "T2", Surface: 45}
	require.NoError(t, repo.CreateProperty(ctx, prop))
	tenant := &models.Tenant{FirstName: "Marie", LastName: "Schlienger", PropertyID: &prop.ID}
	require.NoError(t, repo.CreateTenant(ctx, tenant))
	return prop, tenant
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://u:p@localhost/sci"))
	assert.True(t, IsPostgresDSN("postgresql://localhost/sci"))
	assert.True(t, IsPostgresDSN("host=localhost user=sci dbname=sci"))
	assert.False(t, IsPostgresDSN("sci-ledger.db"))
	assert.False(t, IsPostgresDSN("file::memory:"))
}

func TestInsertMovement_Deduplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := &models.BankTransaction{
		Date:        "2024-04-05",
		Label:       "VIR LOYER",
		Credit:      decimal.NewNullDecimal(dec("650")),
		Source:      models.SourceCSV,
		Fingerprint: "fp-1",
	}
	inserted, err := repo.InsertMovement(ctx, m)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEmpty(t, m.ID)

	again := &models.BankTransaction{Date: "2024-04-05", Label: "VIR LOYER", Source: models.SourceCSV, Fingerprint: "fp-1"}
	inserted, err = repo.InsertMovement(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := repo.CountMovements(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	loaded, err := repo.GetMovement(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Credit.Valid)
	assert.True(t, loaded.Credit.Decimal.Equal(dec("650")))
	assert.False(t, loaded.Debit.Valid)
}

func TestListMovements_Filters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, tenant := seedTenant(t, repo)

	for i, date := range []string{"2024-03-31", "2024-04-05", "2024-04-20"} {
		m := &models.BankTransaction{Date: date, Label: "M", Source: models.SourceCSV, Fingerprint: date}
		if i == 1 {
			m.TenantID = &tenant.ID
		}
		_, err := repo.InsertMovement(ctx, m)
		require.NoError(t, err)
	}

	april, err := repo.ListMovements(ctx, MovementFilter{From: "2024-04-01", To: "2024-04-30"})
	require.NoError(t, err)
	require.Len(t, april, 2)
	assert.Equal(t, "2024-04-20", april[0].Date)

	mine, err := repo.ListMovements(ctx, MovementFilter{TenantID: tenant.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, repo.MarkReconciled(ctx, mine[0].ID))
	open, err := repo.ListMovements(ctx, MovementFilter{UnreconciledOnly: true})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	err = repo.MarkReconciled(ctx, "missing")
	assert.True(t, apperrors.IsLookupMiss(err))
}

func TestUpsertEntry_ChargeIsUniquePerTenantDateType(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	prop, tenant := seedTenant(t, repo)

	for _, amount := range []string{"-700", "-720"} {
		require.NoError(t, repo.UpsertEntry(ctx, &models.LedgerEntry{
			TenantID:    tenant.ID,
			PropertyID:  prop.ID,
			EntryDate:   "2024-04-01",
			Type:        models.EntryRentCharge,
			Debit:       dec(amount),
			Credit:      decimal.Zero,
			Description: "Appel loyer 04-01",
		}))
	}
	require.NoError(t, repo.UpsertEntry(ctx, &models.LedgerEntry{
		TenantID: tenant.ID, PropertyID: prop.ID, EntryDate: "2024-04-01",
		Type: models.EntryChargesCharge, Debit: dec("-40"), Credit: decimal.Zero,
	}))

	entries, err := repo.ListEntries(ctx, EntryFilter{TenantID: tenant.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	rent, err := repo.ListEntries(ctx, EntryFilter{TenantID: tenant.ID, Type: models.EntryRentCharge})
	require.NoError(t, err)
	require.Len(t, rent, 1)
	assert.True(t, rent[0].Debit.Equal(dec("-720")))
}

func TestUpsertEntry_MovementLinkedIsUniquePerMovementTenant(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	prop, tenant := seedTenant(t, repo)
	movementID := "mvt-1"

	for _, amount := range []string{"30", "50"} {
		require.NoError(t, repo.UpsertEntry(ctx, &models.LedgerEntry{
			TenantID: tenant.ID, PropertyID: prop.ID, EntryDate: "2024-04-05",
			Type: models.EntryPayment, Debit: decimal.Zero, Credit: dec(amount),
			MovementID: &movementID,
		}))
	}

	entries, err := repo.ListEntries(ctx, EntryFilter{MovementID: movementID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Credit.Equal(dec("50")))

	err = repo.UpsertEntry(ctx, &models.LedgerEntry{TenantID: tenant.ID, Type: models.EntryPayment})
	var se *apperrors.StorageError
	assert.True(t, errors.As(err, &se))

	err = repo.UpsertEntry(ctx, &models.LedgerEntry{TenantID: tenant.ID, Type: "bonus"})
	assert.True(t, errors.As(err, &se))
}

func TestDeleteMovementEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	prop, first := seedTenant(t, repo)
	second := &models.Tenant{FirstName: "Paul", LastName: "Martin", PropertyID: &prop.ID}
	require.NoError(t, repo.CreateTenant(ctx, second))

	movementID := "mvt-2"
	for _, tenantID := range []string{first.ID, second.ID} {
		require.NoError(t, repo.UpsertEntry(ctx, &models.LedgerEntry{
			TenantID: tenantID, PropertyID: prop.ID, EntryDate: "2024-04-05",
			Type: models.EntryPayment, Debit: decimal.Zero, Credit: dec("25"), MovementID: &movementID,
		}))
	}

	removed, err := repo.DeleteMovementEntries(ctx, movementID, []string{first.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	left, err := repo.ListEntries(ctx, EntryFilter{MovementID: movementID})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, first.ID, left[0].TenantID)
}

func TestLatestRent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	prop, _ := seedTenant(t, repo)

	_, err := repo.LatestRent(ctx, prop.ID)
	assert.True(t, apperrors.IsLookupMiss(err))

	require.NoError(t, repo.UpsertRent(ctx, &models.RentRecord{PropertyID: prop.ID, EffectiveDate: "2023-01-01", Amount: dec("680")}))
	require.NoError(t, repo.UpsertRent(ctx, &models.RentRecord{PropertyID: prop.ID, EffectiveDate: "2024-01-01", Amount: dec("700")}))
	require.NoError(t, repo.UpsertRent(ctx, &models.RentRecord{PropertyID: prop.ID, EffectiveDate: "2024-01-01", Amount: dec("710")}))

	rec, err := repo.LatestRent(ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", rec.EffectiveDate)
	assert.True(t, rec.Amount.Equal(dec("710")))
}

func TestTenantProperty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	prop, tenant := seedTenant(t, repo)

	got, err := repo.TenantProperty(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, prop.ID, got)

	homeless := &models.Tenant{FirstName: "Léa", LastName: "Sans"}
	require.NoError(t, repo.CreateTenant(ctx, homeless))
	_, err = repo.TenantProperty(ctx, homeless.ID)
	var miss *apperrors.LookupMiss
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, KindTenantProperty, miss.Kind)

	dangling := "gone"
	orphan := &models.Tenant{FirstName: "Paul", LastName: "Orphelin", PropertyID: &dangling}
	require.NoError(t, repo.CreateTenant(ctx, orphan))
	_, err = repo.TenantProperty(ctx, orphan.ID)
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, KindTenantProperty, miss.Kind)

	_, err = repo.TenantProperty(ctx, "unknown")
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, KindTenant, miss.Kind)
	assert.Equal(t, "unknown", miss.Key)
}

func TestWithTx_PublishesAfterCommitOnly(t *testing.T) {
	repo := newTestRepo(t)
	pub := &recordingPublisher{}
	repo.SetPublisher(pub)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx *Repository) error {
		_, err := tx.InsertMovement(ctx, &models.BankTransaction{Date: "2024-04-01", Label: "A", Source: models.SourceCSV, Fingerprint: "a"})
		require.NoError(t, err)
		assert.Empty(t, pub.Tables())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, pub.Tables())

	n, err := repo.CountMovements(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	err = repo.WithTx(ctx, func(tx *Repository) error {
		for _, fp := range []string{"b", "c"} {
			if _, err := tx.InsertMovement(ctx, &models.BankTransaction{Date: "2024-04-01", Label: fp, Source: models.SourceCSV, Fingerprint: fp}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{models.TableMovements}, pub.Tables())
}

func TestInvoicesAndDocuments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	prop, _ := seedTenant(t, repo)

	inv := &models.Invoice{Number: "F-2024-001", Supplier: "Plomberie", DueDate: "2024-05-01", Amount: dec("240"), PropertyID: &prop.ID}
	require.NoError(t, repo.CreateInvoice(ctx, inv))

	doc := &models.Document{Name: "facture.pdf", Path: "invoices/f-2024-001.pdf", ContentType: "application/pdf", Size: 1024, InvoiceID: &inv.ID}
	require.NoError(t, repo.CreateDocument(ctx, doc))

	docs, err := repo.ListDocuments(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "invoices/f-2024-001.pdf", docs[0].Path)

	invoices, err := repo.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)

	_, err = repo.GetInvoice(ctx, "nope")
	assert.True(t, apperrors.IsLookupMiss(err))
}
