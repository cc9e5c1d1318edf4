package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/dateutils"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// CallStore is what the call generator reads and writes.
type CallStore interface {
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	LatestRent(ctx context.Context, propertyID string) (*models.RentRecord, error)
	UpsertEntry(ctx context.Context, e *models.LedgerEntry) error
}

// CallReport summarizes one monthly call run.
type CallReport struct {
	Month   string
	Written int
	Skipped []string
}

// CallGenerator issues the monthly rent and charges calls of every tenant.
type CallGenerator struct {
	repo   *repository.Repository
	logger logging.Logger
}

// NewCallGenerator creates a CallGenerator.
func NewCallGenerator(repo *repository.Repository, logger logging.Logger) *CallGenerator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &CallGenerator{repo: repo, logger: logger}
}

// Generate writes the calls for the month containing month in a single
// transaction. Re-running it for the same month overwrites the amounts.
func (g *CallGenerator) Generate(ctx context.Context, month time.Time) (CallReport, error) {
	var report CallReport
	err := g.repo.WithTx(ctx, func(tx *repository.Repository) error {
		var err error
		report, err = GenerateCalls(ctx, tx, month, g.logger)
		return err
	})
	if err != nil {
		return CallReport{}, err
	}

	g.logger.Info("Monthly calls generated",
		logging.F(logging.FieldEntryDate, report.Month),
		logging.F(logging.FieldCount, report.Written),
		logging.F("skipped", len(report.Skipped)))
	return report, nil
}

// GenerateCalls emits, for every tenant with a property, a rent_charge from
// the property's latest rent record when one exists and a charges_charge for
// the tenant's fixed charges, both dated the first of the month.
func GenerateCalls(ctx context.Context, store CallStore, month time.Time, logger logging.Logger) (CallReport, error) {
	first := dateutils.StartOfMonth(month)
	entryDate := dateutils.ToISODate(first)
	report := CallReport{Month: entryDate}

	tenants, err := store.ListTenants(ctx)
	if err != nil {
		return report, err
	}

	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log := logger.WithField(logging.FieldTenant, tenant.ID)

		if !tenant.HasProperty() {
			log.Warn("Tenant has no property, no call issued")
			report.Skipped = append(report.Skipped, tenant.ID)
			continue
		}
		propertyID := *tenant.PropertyID

		rent, err := store.LatestRent(ctx, propertyID)
		var miss *apperrors.LookupMiss
		switch {
		case err == nil:
			entry := chargeEntry(tenant.ID, propertyID, entryDate, models.EntryRentCharge, rent.Amount,
				fmt.Sprintf("Appel loyer %s-01 (maj %s)", first.Format("01"), rent.EffectiveDate))
			if err := store.UpsertEntry(ctx, &entry); err != nil {
				return report, err
			}
			report.Written++
		case errors.As(err, &miss):
			log.Debug("Property has no rent record, rent call not issued",
				logging.F(logging.FieldProperty, propertyID))
		default:
			return report, err
		}

		entry := chargeEntry(tenant.ID, propertyID, entryDate, models.EntryChargesCharge, tenant.MonthlyCharges(),
			fmt.Sprintf("Appel charges %s-01", first.Format("01")))
		if err := store.UpsertEntry(ctx, &entry); err != nil {
			return report, err
		}
		report.Written++
	}
	return report, nil
}

func chargeEntry(tenantID, propertyID, date string, typ models.EntryType, amount decimal.Decimal, description string) models.LedgerEntry {
	return models.LedgerEntry{
		TenantID:    tenantID,
		PropertyID:  propertyID,
		EntryDate:   date,
		Type:        typ,
		Debit:       amount.Abs().Neg(),
		Credit:      decimal.Zero,
		Description: description,
	}
}
