package log

// Field names shared by every component.
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldBackend        = "backend"
	FieldMessageID      = "message_id"
	FieldIdempotencyKey = "idempotency_key"
	FieldSender         = "sender"
	FieldTransactionID  = "transaction_id"
	FieldCategory       = "category"
	FieldPaymentType    = "payment_type"
	FieldAmount         = "amount"
	FieldState          = "state"
)

const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentWebhook    = "webhook"
	ComponentDispatcher = "dispatcher"
	ComponentBackend    = "backend"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentRateLimit  = "rate_limit"
)

const (
	OpAppend   = "append"
	OpQuery    = "query"
	OpNotify   = "notify"
	OpMirror   = "mirror"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields builds a set of structured attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
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

// WithTransaction adds the fields that identify a ledger entry. The
// description is left out since it is free text from the user.
func (f LogFields) WithTransaction(id, category, paymentType string, amount float64) LogFields {
	f[FieldTransactionID] = id
	f[FieldCategory] = category
	f[FieldPaymentType] = paymentType
	f[FieldAmount] = amount
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
