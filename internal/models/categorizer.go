package models

// Classification is the category triple assigned to a bank transaction.
// The zero value means "unclassified" and is stored as NULLs.
type Classification struct {
	Category     string `yaml:"category"`
	SubCategory  string `yaml:"sub_category"`
	Counterparty string `yaml:"counterparty"`
}

// IsZero reports whether no rule matched.
func (c Classification) IsZero() bool {
	return c.Category == "" && c.SubCategory == "" && c.Counterparty == ""
}

// RuleConfig is one classification rule as found in rules.yaml. Any keyword
// matching the description selects the rule's classification.
type RuleConfig struct {
	Name           string   `yaml:"name"`
	Keywords       []string `yaml:"keywords"`
	Classification `yaml:",inline"`
}

// RulesConfig is the top-level structure of rules.yaml.
type RulesConfig struct {
	Rules []RuleConfig `yaml:"rules"`
}

// TenantKeyword maps an upper-case surname keyword to a tenant id.
type TenantKeyword struct {
	Keyword  string `yaml:"keyword"`
	TenantID string `yaml:"tenant_id"`
}

// TenantsConfig is the top-level structure of tenants.yaml.
type TenantsConfig struct {
	Tenants []TenantKeyword `yaml:"tenants"`
}
