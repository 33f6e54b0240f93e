package service

// Shared structured log field names. Keeping them in one place means
// downstream log queries see consistent keys across packages.
const (
	LogFieldRequestID = "request_id"
	LogFieldTraceID   = "trace_id"
	LogFieldMethod    = "http_method"
	LogFieldURL       = "url"
	LogFieldRemoteIP  = "remote_ip"
	LogFieldUserAgent = "user_agent"
	LogFieldDID       = "did"
	LogFieldFrom      = "from"
	LogFieldDevices   = "devices"

	LogFieldStatusCode = "status_code"
	LogFieldDuration   = "duration_ms"
	LogFieldSize       = "response_size"
)
