package repository

import (
	"context"
	"fmt"

	"fjacquet/sci-ledger/internal/models"
)

// NotifyChannel is the PostgreSQL channel carrying table change signals.
const NotifyChannel = "table_changes"

// chargeIndexSQL enforces one scheduled charge per (tenant, date, type).
// gorm tags cannot express the partial predicate, so it is created by hand.
var chargeIndexSQL = fmt.Sprintf(
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_charge ON %s (tenant_id, entry_date, type) WHERE type IN ('%s', '%s')`,
	models.TableLedger, models.EntryRentCharge, models.EntryChargesCharge,
)

const notifyFunctionSQL = `CREATE OR REPLACE FUNCTION notify_table_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('` + NotifyChannel + `', TG_TABLE_NAME);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`

// notifiedTables are the tables whose changes drive client refreshes.
var notifiedTables = []string{models.TableMovements, models.TableLedger}

// Migrate creates or updates the schema.
func (r *Repository) Migrate(ctx context.Context) error {
	db := r.with(ctx)
	if err := db.AutoMigrate(allModels...); err != nil {
		return storageError("migrate", "schema", err)
	}
	if err := db.Exec(chargeIndexSQL).Error; err != nil {
		return storageError("migrate", models.TableLedger, err)
	}

	if r.Driver() == "postgres" {
		if err := db.Exec(notifyFunctionSQL).Error; err != nil {
			return storageError("migrate", "notify_table_change", err)
		}
		for _, table := range notifiedTables {
			trigger := "notify_" + table
			if err := db.Exec(fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, trigger, table)).Error; err != nil {
				return storageError("migrate", table, err)
			}
			stmt := fmt.Sprintf(
				`CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH STATEMENT EXECUTE FUNCTION notify_table_change()`,
				trigger, table)
			if err := db.Exec(stmt).Error; err != nil {
				return storageError("migrate", table, err)
			}
		}
	}

	r.logger.WithField("driver", r.Driver()).Debug("Schema migrated")
	return nil
}
