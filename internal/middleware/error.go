package middleware

// ErrorResponse is the envelope used by middleware that must answer
// before a handler runs.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}
