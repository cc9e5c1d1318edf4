// Package common holds flag parsing and output helpers shared by commands.
package common

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fjacquet/sci-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Share is one tenant=amount pair given on the command line.
type Share struct {
	TenantID string
	Amount   decimal.NullDecimal
}

// ParseShares parses "tenant=amount" values. An empty amount yields an
// incomplete share, left for validation to report.
func ParseShares(values []string) ([]Share, error) {
	shares := make([]Share, 0, len(values))
	for _, v := range values {
		tenantID, raw, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("share %q must look like tenant=amount", v)
		}
		amount, err := ParseAmountFlag(raw)
		if err != nil {
			return nil, fmt.Errorf("share %q: %w", v, err)
		}
		shares = append(shares, Share{TenantID: strings.TrimSpace(tenantID), Amount: amount})
	}
	return shares, nil
}

// ParseAmountFlag accepts "650", "650.00" or "650,00". Empty is absent.
func ParseAmountFlag(raw string) (decimal.NullDecimal, error) {
	amount, err := models.ParseAmount(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

// NewTable returns a tab-aligned writer; call Flush when done.
func NewTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(headers) > 0 {
		_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	return tw
}

// Row writes one tab-separated table row.
func Row(w io.Writer, cells ...string) {
	_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
}

// Deref returns *s or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
