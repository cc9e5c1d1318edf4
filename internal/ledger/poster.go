// Package ledger derives tenant ledger entries from bank movements and rent
// schedules, and computes tenant account statements with running balances.
package ledger

import (
	"context"
	"errors"

	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// EntryStore is what the poster needs from the data store.
type EntryStore interface {
	TenantProperty(ctx context.Context, tenantID string) (string, error)
	UpsertEntry(ctx context.Context, e *models.LedgerEntry) error
}

// PostReport summarizes one posting run.
type PostReport struct {
	Posted   int
	Skipped  int
	Warnings []error
}

// Poster turns tenant-resolved bank movements into payment and refund
// entries.
type Poster struct {
	logger logging.Logger
}

// NewPoster creates a Poster.
func NewPoster(logger logging.Logger) *Poster {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Poster{logger: logger}
}

// EntryForMovement builds the ledger entry of a resolved movement. A credit
// becomes a payment; a movement with only a debit becomes a refund, stored as
// a negative debit. The second return is false when there is nothing to post.
func EntryForMovement(m models.BankTransaction, propertyID string) (models.LedgerEntry, bool) {
	if !m.IsResolved() || (!m.Credit.Valid && !m.Debit.Valid) {
		return models.LedgerEntry{}, false
	}

	entry := models.LedgerEntry{
		TenantID:    *m.TenantID,
		PropertyID:  propertyID,
		EntryDate:   m.Date,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
		MovementID:  models.StringPtr(m.ID),
		Description: m.Label,
	}
	if m.Credit.Valid {
		entry.Type = models.EntryPayment
		entry.Credit = m.Credit.Decimal.Abs()
	} else {
		entry.Type = models.EntryRefund
	}
	if m.Debit.Valid {
		entry.Debit = m.Debit.Decimal.Abs().Neg()
	}
	return entry, true
}

// PostMovements posts one entry per resolved movement. A tenant without a
// property is skipped with a warning; any storage failure aborts the run.
func (p *Poster) PostMovements(ctx context.Context, store EntryStore, movements []models.BankTransaction) (PostReport, error) {
	var report PostReport
	for _, m := range movements {
		if !m.IsResolved() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		log := p.logger.WithFields(
			logging.Field{Key: logging.FieldMovement, Value: m.ID},
			logging.Field{Key: logging.FieldTenant, Value: *m.TenantID},
		)

		propertyID, err := store.TenantProperty(ctx, *m.TenantID)
		if err != nil {
			var miss *apperrors.LookupMiss
			if errors.As(err, &miss) {
				log.WithError(err).Warn("Tenant has no property, movement not posted")
				report.Skipped++
				report.Warnings = append(report.Warnings, err)
				continue
			}
			return report, err
		}

		entry, ok := EntryForMovement(m, propertyID)
		if !ok {
			continue
		}
		if err := store.UpsertEntry(ctx, &entry); err != nil {
			return report, err
		}
		report.Posted++
		log.Debug("Posted movement to tenant ledger",
			logging.F(logging.FieldEntryType, entry.Type))
	}
	return report, nil
}
