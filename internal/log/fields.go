package log

const (
	// Connection
	FieldClientID = "client_id"
	FieldChannel  = "channel"
	FieldOrigin   = "origin"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
