package categorizer

import "fjacquet/sci-ledger/internal/models"

// DefaultRules is the built-in rule table, evaluated top to bottom.
func DefaultRules() []models.RuleConfig {
	return []models.RuleConfig{
		{
			Name:     "loyer",
			Keywords: []string{"loyer"},
			Classification: models.Classification{
				Category: "Revenus", SubCategory: "Loyer", Counterparty: "Locataire",
			},
		},
		{
			Name:     "abonnement",
			Keywords: []string{"abonnement"},
			Classification: models.Classification{
				Category: "Frais bancaires", SubCategory: "Abonnement", Counterparty: "Banque",
			},
		},
		{
			Name:     "transport",
			Keywords: []string{"garage", "voiture"},
			Classification: models.Classification{
				Category: "Dépenses", SubCategory: "Transport", Counterparty: "Garage",
			},
		},
		{
			Name:     "sci",
			Keywords: []string{"sci"},
			Classification: models.Classification{
				Category: "Transfert", SubCategory: "SCI", Counterparty: "SCI Carpiblique",
			},
		},
	}
}
