package repository

import (
	"context"

	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/models"

	"gorm.io/gorm/clause"
)

// CreateProperty inserts a property, assigning an id when missing.
func (r *Repository) CreateProperty(ctx context.Context, p *models.Property) error {
	p.ID = newID(p.ID)
	if err := r.with(ctx).Create(p).Error; err != nil {
		return storageError("insert", models.TableProperties, err)
	}
	r.changed(models.TableProperties)
	return nil
}

// GetProperty loads one property.
func (r *Repository) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	if err := r.with(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, lookupError("property", id, models.TableProperties, err)
	}
	return &p, nil
}

// ListProperties returns all properties ordered by name.
func (r *Repository) ListProperties(ctx context.Context) ([]models.Property, error) {
	var props []models.Property
	if err := r.with(ctx).Order("name").Find(&props).Error; err != nil {
		return nil, storageError("read", models.TableProperties, err)
	}
	return props, nil
}

// CreateTenant inserts a tenant, assigning an id when missing.
func (r *Repository) CreateTenant(ctx context.Context, t *models.Tenant) error {
	t.ID = newID(t.ID)
	if err := r.with(ctx).Create(t).Error; err != nil {
		return storageError("insert", models.TableTenants, err)
	}
	r.changed(models.TableTenants)
	return nil
}

// GetTenant loads one tenant.
func (r *Repository) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.with(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, lookupError(KindTenant, id, models.TableTenants, err)
	}
	return &t, nil
}

// ListTenants returns all tenants ordered by last name.
func (r *Repository) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := r.with(ctx).Order("last_name").Order("first_name").Find(&tenants).Error; err != nil {
		return nil, storageError("read", models.TableTenants, err)
	}
	return tenants, nil
}

// TenantProperty returns the property a tenant occupies. An unknown tenant
// is a LookupMiss of KindTenant; a tenant without a property, or whose
// property no longer exists, is a LookupMiss of KindTenantProperty.
func (r *Repository) TenantProperty(ctx context.Context, tenantID string) (string, error) {
	t, err := r.GetTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if !t.HasProperty() {
		return "", lookupMiss(KindTenantProperty, tenantID)
	}
	if _, err := r.GetProperty(ctx, *t.PropertyID); err != nil {
		if apperrors.IsLookupMiss(err) {
			return "", lookupMiss(KindTenantProperty, tenantID)
		}
		return "", err
	}
	return *t.PropertyID, nil
}

// UpsertRent records a rent snapshot, replacing the amount of an existing
// record for the same property and effective date.
func (r *Repository) UpsertRent(ctx context.Context, rec *models.RentRecord) error {
	rec.ID = newID(rec.ID)
	err := r.with(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "property_id"}, {Name: "date_valeur"}},
		DoUpdates: clause.AssignmentColumns([]string{"loyer_nu"}),
	}).Create(rec).Error
	if err != nil {
		return storageError("upsert", models.TableRent, err)
	}
	r.changed(models.TableRent)
	return nil
}

// LatestRent returns the most recent rent record of a property by effective
// date, or a LookupMiss when the property has none.
func (r *Repository) LatestRent(ctx context.Context, propertyID string) (*models.RentRecord, error) {
	var rec models.RentRecord
	err := r.with(ctx).
		Where("property_id = ?", propertyID).
		Order("date_valeur DESC").
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		return nil, lookupError("rent of property", propertyID, models.TableRent, err)
	}
	return &rec, nil
}
