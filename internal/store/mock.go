package store

import (
	"fjacquet/sci-ledger/internal/models"
)

// MockConfigStore is a mock implementation of ConfigStore for testing.
type MockConfigStore struct {
	Rules   []models.RuleConfig
	Tenants []models.TenantKeyword

	// Error flags for testing error conditions
	LoadRulesError   error
	LoadTenantsError error
	SaveTenantsError error
}

// LoadRules returns the mock rules.
func (m *MockConfigStore) LoadRules() ([]models.RuleConfig, error) {
	if m.LoadRulesError != nil {
		return nil, m.LoadRulesError
	}
	return m.Rules, nil
}

// LoadTenantKeywords returns a copy of the mock roster.
func (m *MockConfigStore) LoadTenantKeywords() ([]models.TenantKeyword, error) {
	if m.LoadTenantsError != nil {
		return nil, m.LoadTenantsError
	}
	return append([]models.TenantKeyword(nil), m.Tenants...), nil
}

// SaveTenantKeywords replaces the mock roster.
func (m *MockConfigStore) SaveTenantKeywords(keywords []models.TenantKeyword) error {
	if m.SaveTenantsError != nil {
		return m.SaveTenantsError
	}
	m.Tenants = append([]models.TenantKeyword(nil), keywords...)
	return nil
}
