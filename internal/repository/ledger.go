package repository

import (
	"context"
	"fmt"

	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/models"

	"gorm.io/gorm/clause"
)

// EntryFilter narrows ListEntries. Zero values do not filter.
type EntryFilter struct {
	TenantID   string
	MovementID string
	Type       models.EntryType
	From       string
	To         string
}

// chargeConflict targets the partial unique index on scheduled charges.
var chargeConflict = clause.OnConflict{
	Columns: []clause.Column{{Name: "tenant_id"}, {Name: "entry_date"}, {Name: "type"}},
	TargetWhere: clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: fmt.Sprintf("type IN ('%s', '%s')", models.EntryRentCharge, models.EntryChargesCharge)},
	}},
	DoUpdates: clause.AssignmentColumns([]string{"property_id", "debit", "credit", "description"}),
}

// movementConflict targets the (movement_id, tenant_id) unique index.
var movementConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "movement_id"}, {Name: "tenant_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"property_id", "entry_date", "type", "debit", "credit", "description"}),
}

// UpsertEntry writes a ledger entry using the uniqueness rule of its kind:
// scheduled charges are unique per (tenant, entry date, type), transaction
// linked entries per (movement, tenant). An existing row is overwritten.
func (r *Repository) UpsertEntry(ctx context.Context, e *models.LedgerEntry) error {
	if !e.Type.Valid() {
		return &apperrors.StorageError{Op: "upsert", Table: models.TableLedger,
			Err: fmt.Errorf("unknown entry type %q", e.Type)}
	}

	var conflict clause.OnConflict
	if e.Type.IsCharge() {
		conflict = chargeConflict
	} else {
		if e.MovementID == nil || *e.MovementID == "" {
			return &apperrors.StorageError{Op: "upsert", Table: models.TableLedger,
				Err: fmt.Errorf("%s entry requires a movement id", e.Type)}
		}
		conflict = movementConflict
	}

	e.ID = newID(e.ID)
	if err := r.with(ctx).Clauses(conflict).Create(e).Error; err != nil {
		return storageError("upsert", models.TableLedger, err)
	}
	r.changed(models.TableLedger)
	return nil
}

// ListEntries returns ledger entries in entry date order, creation order
// breaking ties.
func (r *Repository) ListEntries(ctx context.Context, f EntryFilter) ([]models.LedgerEntry, error) {
	q := r.with(ctx).Model(&models.LedgerEntry{})
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.MovementID != "" {
		q = q.Where("movement_id = ?", f.MovementID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.From != "" {
		q = q.Where("entry_date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("entry_date <= ?", f.To)
	}

	var out []models.LedgerEntry
	if err := q.Order("entry_date").Order("created_at").Order("id").Find(&out).Error; err != nil {
		return nil, storageError("read", models.TableLedger, err)
	}
	return out, nil
}

// DeleteMovementEntries removes the entries of a movement whose tenant is not
// in keep. It returns the number of rows removed.
func (r *Repository) DeleteMovementEntries(ctx context.Context, movementID string, keep []string) (int64, error) {
	q := r.with(ctx).Where("movement_id = ?", movementID)
	if len(keep) > 0 {
		q = q.Where("tenant_id NOT IN ?", keep)
	}
	res := q.Delete(&models.LedgerEntry{})
	if res.Error != nil {
		return 0, storageError("delete", models.TableLedger, res.Error)
	}
	if res.RowsAffected > 0 {
		r.changed(models.TableLedger)
	}
	return res.RowsAffected, nil
}
