package ledger

import (
	"context"
	"io"

	"fjacquet/sci-ledger/internal/common"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// EntryLister reads ledger entries.
type EntryLister interface {
	ListEntries(ctx context.Context, f repository.EntryFilter) ([]models.LedgerEntry, error)
}

// Line is a ledger entry with the balance after it.
type Line struct {
	models.LedgerEntry
	Balance decimal.Decimal
}

// Statement is a tenant account over an optional date window. Opening is the
// balance carried from entries before the window.
type Statement struct {
	TenantID    string
	From        string
	To          string
	Opening     decimal.Decimal
	Lines       []Line
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balance     decimal.Decimal
}

// Balance is the signed sum of entries. It is the only source of a tenant's
// balance; nothing is stored.
func Balance(entries []models.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount())
	}
	return total
}

// BuildStatement computes running balances over entries already sorted by
// entry date, starting from opening.
func BuildStatement(tenantID, from, to string, opening decimal.Decimal, entries []models.LedgerEntry) *Statement {
	st := &Statement{
		TenantID:    tenantID,
		From:        from,
		To:          to,
		Opening:     opening,
		Lines:       make([]Line, 0, len(entries)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}

	running := opening
	for _, e := range entries {
		running = running.Add(e.Amount())
		st.TotalDebit = st.TotalDebit.Add(e.Debit)
		st.TotalCredit = st.TotalCredit.Add(e.Credit)
		st.Lines = append(st.Lines, Line{LedgerEntry: e, Balance: running})
	}
	st.Balance = running
	return st
}

// Account loads a tenant's entries within [from, to] (empty bounds are open)
// and returns the statement with running balances.
func Account(ctx context.Context, store EntryLister, tenantID, from, to string) (*Statement, error) {
	entries, err := store.ListEntries(ctx, repository.EntryFilter{TenantID: tenantID, From: from, To: to})
	if err != nil {
		return nil, err
	}

	opening := decimal.Zero
	if from != "" {
		all, err := store.ListEntries(ctx, repository.EntryFilter{TenantID: tenantID})
		if err != nil {
			return nil, err
		}
		for _, e := range all {
			if e.EntryDate < from {
				opening = opening.Add(e.Amount())
			}
		}
	}
	return BuildStatement(tenantID, from, to, opening, entries), nil
}

// AccountRow is the CSV shape of a statement line.
type AccountRow struct {
	Date        string `csv:"date" json:"date"`
	Type        string `csv:"type" json:"type"`
	Description string `csv:"description" json:"description"`
	Debit       string `csv:"debit" json:"debit"`
	Credit      string `csv:"credit" json:"credit"`
	Balance     string `csv:"balance" json:"balance"`
}

// Rows flattens the statement for export.
func (s *Statement) Rows() []AccountRow {
	rows := make([]AccountRow, 0, len(s.Lines))
	for _, l := range s.Lines {
		rows = append(rows, AccountRow{
			Date:        l.EntryDate,
			Type:        string(l.Type),
			Description: l.Description,
			Debit:       l.Debit.StringFixed(2),
			Credit:      l.Credit.StringFixed(2),
			Balance:     l.Balance.StringFixed(2),
		})
	}
	return rows
}

// WriteCSV exports the statement lines.
func (s *Statement) WriteCSV(w io.Writer, delimiter rune) error {
	return common.WriteCSV(w, s.Rows(), delimiter)
}
