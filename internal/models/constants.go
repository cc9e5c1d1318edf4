package models

// EntryType is the kind of a tenant ledger entry.
type EntryType string

// Ledger entry types
const (
	EntryRentCharge    EntryType = "rent_charge"
	EntryChargesCharge EntryType = "charges_charge"
	EntryPayment       EntryType = "payment"
	EntryRefund        EntryType = "refund"
)

// ChargeTypes lists the entry types produced by the monthly call generator.
var ChargeTypes = []EntryType{EntryRentCharge, EntryChargesCharge}

// IsCharge reports whether t is a scheduled charge (unique per tenant, date and type).
func (t EntryType) IsCharge() bool {
	return t == EntryRentCharge || t == EntryChargesCharge
}

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryRentCharge, EntryChargesCharge, EntryPayment, EntryRefund:
		return true
	}
	return false
}

// Source tags where a bank transaction came from.
type Source string

// Bank transaction sources
const (
	SourceCSV    Source = "csv"
	SourceManual Source = "manual"
)

// Table names
const (
	TableProperties = "properties"
	TableTenants    = "tenants"
	TableRent       = "rent"
	TableMovements  = "mouvements_bancaires"
	TableLedger     = "tenant_accounts"
	TableInvoices   = "invoices"
	TableDocuments  = "documents"
)
