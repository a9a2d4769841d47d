package models

// LogEntry is the structured log record shape shared by every component.
type LogEntry struct {
	ServiceName string                 `json:"service_name"`
	TraceID     string                 `json:"trace_id,omitempty"`
	UserID      string                 `json:"user_id,omitempty"`
	ChatID      int64                  `json:"chat_id,omitempty"`
	RequestInfo *RequestInfo           `json:"request_info,omitempty"`
	Error       *ErrorInfo             `json:"error,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo describes the incoming request: an HTTP call on the dashboard
// or a chat update (Method is "message" or "callback", Path the text or data).
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// ErrorInfo carries a structured error.
type ErrorInfo struct {
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
	Type       string `json:"type,omitempty"` // e.g. "database_error", "telegram_error", "panic"
	StatusCode int    `json:"status_code,omitempty"`
}
