package repository

import (
	"context"

	"fjacquet/sci-ledger/internal/models"

	"gorm.io/gorm/clause"
)

// MovementFilter narrows ListMovements. Zero values do not filter.
type MovementFilter struct {
	From             string
	To               string
	TenantID         string
	UnreconciledOnly bool
	Limit            int
}

// InsertMovement inserts a bank transaction unless one with the same
// fingerprint exists. It reports whether a row was written.
func (r *Repository) InsertMovement(ctx context.Context, m *models.BankTransaction) (bool, error) {
	m.ID = newID(m.ID)
	res := r.with(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoNothing: true,
	}).Create(m)
	if res.Error != nil {
		return false, storageError("insert", models.TableMovements, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	r.changed(models.TableMovements)
	return true, nil
}

// GetMovement loads one bank transaction.
func (r *Repository) GetMovement(ctx context.Context, id string) (*models.BankTransaction, error) {
	var m models.BankTransaction
	if err := r.with(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, lookupError("movement", id, models.TableMovements, err)
	}
	return &m, nil
}

// ListMovements returns bank transactions, most recent first.
func (r *Repository) ListMovements(ctx context.Context, f MovementFilter) ([]models.BankTransaction, error) {
	q := r.with(ctx).Model(&models.BankTransaction{})
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date <= ?", f.To)
	}
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.UnreconciledOnly {
		q = q.Where("reconciled = ?", false)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []models.BankTransaction
	if err := q.Order("date DESC").Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, storageError("read", models.TableMovements, err)
	}
	return out, nil
}

// CountMovements returns the number of stored bank transactions.
func (r *Repository) CountMovements(ctx context.Context) (int64, error) {
	var n int64
	if err := r.with(ctx).Model(&models.BankTransaction{}).Count(&n).Error; err != nil {
		return 0, storageError("count", models.TableMovements, err)
	}
	return n, nil
}

// MarkReconciled sets the reconciled flag of a bank transaction.
func (r *Repository) MarkReconciled(ctx context.Context, id string) error {
	res := r.with(ctx).Model(&models.BankTransaction{}).Where("id = ?", id).Update("reconciled", true)
	if res.Error != nil {
		return storageError("update", models.TableMovements, res.Error)
	}
	if res.RowsAffected == 0 {
		return lookupMiss("movement", id)
	}
	r.changed(models.TableMovements)
	return nil
}

// AttachInvoice links a bank transaction to an invoice.
func (r *Repository) AttachInvoice(ctx context.Context, movementID, invoiceID string) error {
	res := r.with(ctx).Model(&models.BankTransaction{}).Where("id = ?", movementID).Update("invoice_id", invoiceID)
	if res.Error != nil {
		return storageError("update", models.TableMovements, res.Error)
	}
	if res.RowsAffected == 0 {
		return lookupMiss("movement", movementID)
	}
	r.changed(models.TableMovements)
	return nil
}
