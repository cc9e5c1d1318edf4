package models

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Currency is the single currency the ledger is kept in.
const Currency = "€"

// ParseAmount parses a bank statement amount. Statements use a comma as the
// decimal separator and may group thousands with spaces (including
// non-breaking ones). An empty string is an absent amount, not zero.
func ParseAmount(amountStr string) (decimal.NullDecimal, error) {
	amount := StandardizeAmount(amountStr)
	if amount == "" {
		return decimal.NullDecimal{}, nil
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount '%s': %w", amountStr, err)
	}
	return decimal.NewNullDecimal(dec), nil
}

// StandardizeAmount strips whitespace and currency symbols and turns the
// decimal comma into a dot.
func StandardizeAmount(amountStr string) string {
	amount := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ' ' {
			return -1
		}
		return r
	}, amountStr)
	amount = strings.ReplaceAll(amount, "EUR", "")
	amount = strings.ReplaceAll(amount, Currency, "")
	amount = strings.ReplaceAll(amount, ",", ".")
	return amount
}

// FormatAmount renders an amount with two decimals, or "" when absent.
func FormatAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

// CanonicalAmount renders an amount without trailing zeros, or "" when
// absent, so that "50", "50.0" and "50,00" yield the same text.
func CanonicalAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// SumAmounts adds up amounts.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
