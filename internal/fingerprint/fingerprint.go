// Package fingerprint computes the content hash that identifies a bank
// transaction across repeated statement imports.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"fjacquet/sci-ledger/internal/models"

	"github.com/shopspring/decimal"
)

const separator = "|"

// Compute returns the lowercase hex SHA-256 of the date, the trimmed
// description and the canonical credit and debit amounts. Absent amounts
// contribute an empty field, so "absent" and "zero" hash differently.
func Compute(date, description string, credit, debit decimal.NullDecimal) string {
	payload := strings.Join([]string{
		strings.TrimSpace(date),
		strings.TrimSpace(description),
		models.CanonicalAmount(credit),
		models.CanonicalAmount(debit),
	}, separator)

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Of fingerprints a draft.
func Of(d models.Draft) string {
	return Compute(d.Date, d.Label, d.Credit, d.Debit)
}

// Apply sets the fingerprint of each draft in place and returns the drafts
// whose fingerprint was not seen earlier in the slice, preserving order.
// Duplicates within one statement collapse to their first occurrence.
func Apply(drafts []models.Draft) (unique []models.Draft, duplicates int) {
	seen := make(map[string]struct{}, len(drafts))
	unique = make([]models.Draft, 0, len(drafts))
	for i := range drafts {
		drafts[i].Fingerprint = Of(drafts[i])
		if _, ok := seen[drafts[i].Fingerprint]; ok {
			duplicates++
			continue
		}
		seen[drafts[i].Fingerprint] = struct{}{}
		unique = append(unique, drafts[i])
	}
	return unique, duplicates
}
