package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldPhase        = "phase"
	FieldModel        = "model"
	FieldLocation     = "location"
	FieldFilingStatus = "filing_status"
	FieldEntryID      = "entry_id"
	FieldAmountCents  = "amount_cents"
	FieldEstimateID   = "estimate_id"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentHTTP         = "http"
	ComponentLedger       = "ledger"
	ComponentOrchestrator = "orchestrator"
	ComponentLLM          = "llm"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentCache        = "cache"
)

// Operations defines standard operation names
const (
	OpValidate = "validate"
	OpEstimate = "estimate"
	OpAnalyze  = "analyze"
	OpAppend   = "append"
	OpList     = "list"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
