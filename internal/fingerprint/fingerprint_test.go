package fingerprint

import (
	"testing"

	"fjacquet/sci-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestCompute_Stable(t *testing.T) {
	a := Compute("2024-04-05", "VIR LOYER", amount("650"), decimal.NullDecimal{})
	b := Compute("2024-04-05", "  VIR LOYER ", amount("650.00"), decimal.NullDecimal{})

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.Regexp(t, "^[0-9a-f]+$", a)
}

func TestCompute_Distinguishes(t *testing.T) {
	base := Compute("2024-04-05", "VIR LOYER", amount("650"), decimal.NullDecimal{})

	tests := []struct {
		name string
		fp   string
	}{
		{"other date", Compute("2024-04-06", "VIR LOYER", amount("650"), decimal.NullDecimal{})},
		{"other description", Compute("2024-04-05", "VIR LOYER MAI", amount("650"), decimal.NullDecimal{})},
		{"other amount", Compute("2024-04-05", "VIR LOYER", amount("651"), decimal.NullDecimal{})},
		{"amount on the debit side", Compute("2024-04-05", "VIR LOYER", decimal.NullDecimal{}, amount("650"))},
		{"zero instead of absent", Compute("2024-04-05", "VIR LOYER", amount("650"), amount("0"))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, base, tc.fp)
		})
	}
}

func TestApply_CollapsesDuplicates(t *testing.T) {
	drafts := []models.Draft{
		{Line: 1, Date: "2024-04-05", Label: "VIR LOYER", Credit: amount("650")},
		{Line: 2, Date: "2024-04-05", Label: "PRLV ABONNEMENT", Debit: amount("-4.5")},
		{Line: 3, Date: "2024-04-05", Label: "VIR LOYER", Credit: amount("650.00")},
	}

	unique, duplicates := Apply(drafts)

	assert.Equal(t, 1, duplicates)
	assert.Len(t, unique, 2)
	assert.Equal(t, 1, unique[0].Line)
	assert.Equal(t, 2, unique[1].Line)
	for _, d := range drafts {
		assert.NotEmpty(t, d.Fingerprint)
	}
	assert.Equal(t, drafts[0].Fingerprint, drafts[2].Fingerprint)
}
