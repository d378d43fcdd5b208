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
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldTransactionID   = "transaction_id"
	FieldTransactionType = "transaction_type"
	FieldAmountCents     = "amount_cents"
	FieldCategoryID      = "category_id"
	FieldCategoryName    = "category_name"
	FieldExportFormat    = "export_format"
	FieldBackend         = "backend"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentWeb      = "web"
	ComponentSession  = "session"
	ComponentUpstream = "upstream"
	ComponentStorage  = "storage"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpDelete   = "delete"
	OpList     = "list"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpRegister = "register"
	OpReset    = "reset"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
