package categorizer

import "fjacquet/sci-ledger/internal/models"

// RuleStore supplies the ordered rule table.
type RuleStore interface {
	LoadRules() ([]models.RuleConfig, error)
}
