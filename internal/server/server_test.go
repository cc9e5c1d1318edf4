package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fjacquet/sci-ledger/internal/auth"
	"fjacquet/sci-ledger/internal/blob"
	"fjacquet/sci-ledger/internal/feed"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo   *repository.Repository
	server *Server
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithAuth(t, auth.New("secret", ""))
}

func newFixtureWithAuth(t *testing.T, authenticator *auth.Authenticator) *fixture {
	t.Helper()
	logger := logging.NewMockLogger()
	repo, err := repository.OpenMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	broker := feed.NewBroker(logger)
	t.Cleanup(broker.Close)
	repo.SetPublisher(broker)

	blobs, err := blob.New(blob.Options{Root: t.TempDir(), SigningKey: "k"}, logger)
	require.NoError(t, err)
	token, err := authenticator.Mint("gerant", "", time.Hour)
	require.NoError(t, err)

	return &fixture{repo: repo, server: New(repo, broker, blobs, authenticator, logger), token: token}
}

func (f *fixture) get(t *testing.T, target string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.get(t, "/healthz", false).Code)
}

func TestAPIRequiresToken(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/api/movements", false).Code)
}

func TestAPIIgnoresLocalOperator(t *testing.T) {
	f := newFixtureWithAuth(t, auth.New("secret", "gerant"))

	for _, target := range []string{"/api/movements", "/api/tenants/x/account"} {
		assert.Equal(t, http.StatusUnauthorized, f.get(t, target, false).Code, target)
	}
	assert.Equal(t, http.StatusOK, f.get(t, "/api/movements", true).Code)
}

func TestMovementsFollowTheChangeFeed(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.server.Movements().Run(ctx) }()

	require.Eventually(t, func() bool { return f.server.Movements().Loads() >= 1 }, 2*time.Second, 10*time.Millisecond)

	_, err := f.repo.InsertMovement(context.Background(), &models.BankTransaction{
		Date: "2024-04-05", Label: "VIR SCHLIENGER", Credit: decimal.NewNullDecimal(decimal.NewFromInt(650)),
		Source: models.SourceCSV, Fingerprint: "a",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(f.server.Movements().Snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := f.get(t, "/api/movements", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []Movement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "VIR SCHLIENGER", got[0].Label)
	assert.Equal(t, "650.00", got[0].Credit)
	assert.Empty(t, got[0].Debit)
}

func TestTenantAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	prop := &models.Property{Name: "Maison"}
	require.NoError(t, f.repo.CreateProperty(ctx, prop))
	tenant := &models.Tenant{FirstName: "Marc", LastName: "Schlienger", PropertyID: &prop.ID}
	require.NoError(t, f.repo.CreateTenant(ctx, tenant))
	require.NoError(t, f.repo.UpsertEntry(ctx, &models.LedgerEntry{
		TenantID: tenant.ID, PropertyID: prop.ID, EntryDate: "2024-04-01", Type: models.EntryRentCharge,
		Debit: decimal.NewFromInt(-650), Credit: decimal.Zero, Description: "Appel loyer 04-01",
	}))

	rec := f.get(t, "/api/tenants/"+tenant.ID+"/account", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Balance string `json:"balance"`
		Lines   []struct {
			Type    string `json:"type"`
			Balance string `json:"balance"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "-650.00", body.Balance)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, "rent_charge", body.Lines[0].Type)
}
