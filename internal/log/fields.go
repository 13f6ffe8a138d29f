package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldFamilyID  = "family_id"
	FieldKidID     = "kid_id"
	FieldAction    = "action"
	FieldLedgerRef = "ledger_ref"
	FieldBackend   = "backend"
)

// Component names used by the binaries.
const (
	ComponentServer    = "server"
	ComponentWorker    = "ledger_worker"
	ComponentScheduler = "scheduler"
	ComponentSeed      = "seed"
)
