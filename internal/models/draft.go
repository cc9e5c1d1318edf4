package models

import "github.com/shopspring/decimal"

// Draft is a normalized bank transaction produced by the statement parser,
// classified and fingerprinted but not yet persisted.
type Draft struct {
	Line           int
	Date           string
	Label          string
	Debit          decimal.NullDecimal
	Credit         decimal.NullDecimal
	Classification Classification
	Fingerprint    string
	Source         Source
	TenantID       string
}

// SignAmounts stores the debit as a non-positive and the credit as a
// non-negative amount, whichever sign the source used.
func (d *Draft) SignAmounts() {
	if d.Debit.Valid {
		d.Debit.Decimal = d.Debit.Decimal.Abs().Neg()
	}
	if d.Credit.Valid {
		d.Credit.Decimal = d.Credit.Decimal.Abs()
	}
}

// ToTransaction converts the draft into a storable bank transaction owned by
// userID. The id is left empty for the repository to assign.
func (d Draft) ToTransaction(userID string) BankTransaction {
	tx := BankTransaction{
		Date:        d.Date,
		Label:       d.Label,
		Debit:       d.Debit,
		Credit:      d.Credit,
		Source:      d.Source,
		UserID:      userID,
		TenantID:    nullable(d.TenantID),
		Fingerprint: d.Fingerprint,
	}
	if tx.Source == "" {
		tx.Source = SourceCSV
	}
	tx.SetClassification(d.Classification)
	return tx
}
