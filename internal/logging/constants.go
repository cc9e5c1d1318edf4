package logging

// Standardized field names for structured logging.
const (
	FieldFile        = "file_path"
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldTable       = "table"
	FieldCount       = "count"
	FieldDuration    = "duration_ms"
	FieldUser        = "user_id"
	FieldMovement    = "movement_id"
	FieldTenant      = "tenant_id"
	FieldProperty    = "property_id"
	FieldEntryType   = "entry_type"
	FieldEntryDate   = "entry_date"
	FieldFingerprint = "fingerprint"
	FieldKeyword     = "keyword"
	FieldCategory    = "category"
	FieldLine        = "line"
	FieldReason      = "reason"
)
