package store

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)
}

func newTestStore(dir string) *ConfigStore {
	return NewConfigStore(
		filepath.Join(dir, DefaultRulesFile),
		filepath.Join(dir, DefaultTenantsFile),
		logging.NewMockLogger(),
	)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "test.yaml")
	writeFile(t, testFile, "test content")

	s := newTestStore(dir)

	file, err := s.FindConfigFile(testFile)
	assert.NoError(t, err)
	assert.Equal(t, testFile, file)

	_, err = s.FindConfigFile(filepath.Join(dir, "nonexistent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultRulesFile), `rules:
  - name: rent
    keywords: [loyer]
    category: Revenus
    sub_category: Loyer
    counterparty: Locataire
  - name: car
    keywords: [garage, voiture]
    category: Dépenses
    sub_category: Transport
    counterparty: Garage
`)

	rules, err := newTestStore(dir).LoadRules()
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "rent", rules[0].Name)
	assert.Equal(t, []string{"loyer"}, rules[0].Keywords)
	assert.Equal(t, "Revenus", rules[0].Category)
	assert.Equal(t, "Garage", rules[1].Counterparty)
	assert.Equal(t, []string{"garage", "voiture"}, rules[1].Keywords)
}

func TestLoadRules_BareList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultRulesFile), `- name: fees
  keywords: [abonnement]
  category: Frais bancaires
`)

	rules, err := newTestStore(dir).LoadRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "Frais bancaires", rules[0].Category)
}

func TestLoadRules_MissingFile(t *testing.T) {
	logger := logging.NewMockLogger()
	s := NewConfigStore(filepath.Join(t.TempDir(), "absent.yaml"), "", logger)

	rules, err := s.LoadRules()
	assert.NoError(t, err)
	assert.Empty(t, rules)
	assert.True(t, logger.HasEntry("WARN", "Configuration file not found"))
}

func TestLoadRules_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultRulesFile), "rules: [unclosed")

	_, err := newTestStore(dir).LoadRules()
	assert.Error(t, err)
}

func TestTenantKeywords_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir)

	keywords, err := s.LoadTenantKeywords()
	require.NoError(t, err)
	assert.Empty(t, keywords)

	roster := []models.TenantKeyword{
		{Keyword: "SCHLIENGER", TenantID: "8f14e45f-ceea-467f-a0e6-1d2f3c4b5a69"},
		{Keyword: "MARTIN", TenantID: "c9f0f895-fb98-4b91-99f5-1a6b2c3d4e5f"},
	}
	require.NoError(t, s.SaveTenantKeywords(roster))

	loaded, err := s.LoadTenantKeywords()
	require.NoError(t, err)
	assert.Equal(t, roster, loaded)
}

func TestMockConfigStore(t *testing.T) {
	m := &MockConfigStore{Tenants: []models.TenantKeyword{{Keyword: "A", TenantID: "1"}}}

	loaded, err := m.LoadTenantKeywords()
	require.NoError(t, err)
	loaded[0].Keyword = "changed"
	assert.Equal(t, "A", m.Tenants[0].Keyword)

	m.LoadRulesError = os.ErrPermission
	_, err = m.LoadRules()
	assert.ErrorIs(t, err, os.ErrPermission)
}
