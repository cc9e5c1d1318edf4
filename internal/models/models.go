// Package models provides the entities of the rental accounting domain and
// the value types shared by the parser, the poster and the ventilation engine.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is a rented real-estate asset.
type Property struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"not null"`
	Type      string
	Surface   int
	Address   string
	CreatedAt time.Time
}

// TableName implements gorm's tabler.
func (Property) TableName() string { return TableProperties }

// Tenant is the unit of ledger aggregation. A tenant occupies at most one
// property at a time.
type Tenant struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)"`
	FirstName  string  `gorm:"not null"`
	LastName   string  `gorm:"not null;index"`
	PropertyID *string `gorm:"type:varchar(36);index"`
	StartDate  string  `gorm:"type:varchar(10)"`
	Insurance  string
	Charges    decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	CreatedAt  time.Time
}

// TableName implements gorm's tabler.
func (Tenant) TableName() string { return TableTenants }

// FullName returns "First Last".
func (t Tenant) FullName() string {
	if t.FirstName == "" {
		return t.LastName
	}
	return t.FirstName + " " + t.LastName
}

// HasProperty reports whether the tenant is assigned to a property.
func (t Tenant) HasProperty() bool {
	return t.PropertyID != nil && *t.PropertyID != ""
}

// MonthlyCharges returns the fixed monthly charges, zero when unset.
func (t Tenant) MonthlyCharges() decimal.Decimal {
	if !t.Charges.Valid {
		return decimal.Zero
	}
	return t.Charges.Decimal
}

// RentRecord is a dated snapshot of a property's net monthly rent. Records are
// unique per (property, effective date); the most recent one is the current rent.
type RentRecord struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)"`
	PropertyID    string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_rent_property_date"`
	EffectiveDate string          `gorm:"column:date_valeur;type:varchar(10);not null;uniqueIndex:idx_rent_property_date"`
	Amount        decimal.Decimal `gorm:"column:loyer_nu;type:numeric(14,2);not null"`
	CreatedAt     time.Time
}

// TableName implements gorm's tabler.
func (RentRecord) TableName() string { return TableRent }

// BankTransaction is one movement of the bank account, imported from a
// statement or entered manually.
type BankTransaction struct {
	ID           string              `gorm:"primaryKey;type:varchar(36)"`
	Date         string              `gorm:"type:varchar(10);not null;index"`
	Label        string              `gorm:"column:libelle;not null"`
	Debit        decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	Credit       decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	Category     *string             `gorm:"column:categorie"`
	SubCategory  *string             `gorm:"column:sous_categorie"`
	Counterparty *string             `gorm:"column:tiers"`
	Source       Source              `gorm:"type:varchar(10);not null"`
	UserID       string              `gorm:"type:varchar(64)"`
	TenantID     *string             `gorm:"type:varchar(36);index"`
	InvoiceID    *string             `gorm:"type:varchar(36)"`
	Fingerprint  string              `gorm:"type:varchar(64);not null;uniqueIndex"`
	Reconciled   bool                `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

// TableName implements gorm's tabler.
func (BankTransaction) TableName() string { return TableMovements }

// Classification returns the stored category triple.
func (m BankTransaction) Classification() Classification {
	return Classification{
		Category:     deref(m.Category),
		SubCategory:  deref(m.SubCategory),
		Counterparty: deref(m.Counterparty),
	}
}

// SetClassification stores c, writing NULLs for empty parts.
func (m *BankTransaction) SetClassification(c Classification) {
	m.Category = nullable(c.Category)
	m.SubCategory = nullable(c.SubCategory)
	m.Counterparty = nullable(c.Counterparty)
}

// IsResolved reports whether a tenant was attached to the movement.
func (m BankTransaction) IsResolved() bool {
	return m.TenantID != nil && *m.TenantID != ""
}

// LedgerEntry is one row of a tenant's running account (tenant_accounts).
// Charges and refunds are recorded as non-positive debits, payments as
// positive credits; the signed contribution of a row is Credit + Debit.
type LedgerEntry struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)"`
	TenantID    string          `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_ledger_movement_tenant,priority:2"`
	PropertyID  string          `gorm:"type:varchar(36);not null"`
	EntryDate   string          `gorm:"type:varchar(10);not null;index"`
	Type        EntryType       `gorm:"type:varchar(20);not null"`
	Debit       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Credit      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	MovementID  *string         `gorm:"type:varchar(36);uniqueIndex:idx_ledger_movement_tenant,priority:1"`
	Description string
	CreatedAt   time.Time
}

// TableName implements gorm's tabler.
func (LedgerEntry) TableName() string { return TableLedger }

// Amount is the signed contribution of the entry to the tenant balance.
func (e LedgerEntry) Amount() decimal.Decimal {
	return e.Credit.Add(e.Debit)
}

// Invoice is a supplier invoice attached to a property.
type Invoice struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Number     string `gorm:"not null"`
	Supplier   string
	DueDate    string          `gorm:"type:varchar(10);index"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PropertyID *string         `gorm:"type:varchar(36)"`
	CreatedAt  time.Time
}

// TableName implements gorm's tabler.
func (Invoice) TableName() string { return TableInvoices }

// Document is an uploaded file kept in the blob store.
type Document struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Name        string `gorm:"not null"`
	Path        string `gorm:"not null;uniqueIndex"`
	ContentType string
	Size        int64
	InvoiceID   *string `gorm:"type:varchar(36);index"`
	CreatedAt   time.Time
}

// TableName implements gorm's tabler.
func (Document) TableName() string { return TableDocuments }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	return nullable(s)
}
