package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldOperation  = "operation"

	FieldTenantID = "tenant_id"
	FieldYear     = "year"
	FieldMonth    = "month"
	FieldJobID    = "job_id"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentWorker = "worker"
)

// Operations defines standard operation names
const (
	OpCashFlow   = "cashflow_report"
	OpComparison = "budget_comparison"
	OpExport     = "report_export"
)
