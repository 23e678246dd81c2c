package middleware

// Context keys used to store request metadata.
const (
	ContextKeyClientID  = "client_id"
	ContextKeyScope     = "client_scope"
	ContextKeyRequestID = "request_id"
)
