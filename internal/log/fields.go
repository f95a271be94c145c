package log

// Common field names for structured logging
const (
	FieldComponent       = "component"
	FieldRequestID       = "request_id"
	FieldClientIP        = "client_ip"
	FieldMethod          = "method"
	FieldPath            = "path"
	FieldQuery           = "query"
	FieldStatusCode      = "status_code"
	FieldDuration        = "duration_ms"
	FieldUserAgent       = "user_agent"
	FieldReferer         = "referer"
	FieldSuccess         = "success"
	FieldError           = "error"
	FieldErrorType       = "error_type"
	FieldOperation       = "operation"
	FieldTransactionID   = "transaction_id"
	FieldAmountCents     = "amount_cents"
	FieldTransactionType = "transaction_type"
	FieldCategory        = "category"
	FieldMonth           = "month"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAPI       = "api"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentEvents    = "events"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpStats    = "stats"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeBadRequest = "bad_request_error"
	ErrorTypeInternal   = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the identifying fields of a transaction.
func (f LogFields) WithTransaction(id int64, amountCents int64, typ, category string) LogFields {
	f[FieldTransactionID] = id
	f[FieldAmountCents] = amountCents
	f[FieldTransactionType] = typ
	f[FieldCategory] = category
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
