package audit

import (
	"context"

	"github.com/onemedia/broadcast-service/internal/log"
)

// Audit actions for broadcast-service.
const (
	ActionAuth          = "broadcast.auth"
	ActionAuthFailed    = "broadcast.auth_failed"
	ActionAdminJoin     = "broadcast.admin_join"
	ActionRedirect      = "broadcast.redirect"
	ActionControlAd     = "broadcast.control_ad"
	ActionControlBanner = "broadcast.control_banner"
	ActionControlImage  = "broadcast.control_image"
	ActionMatchAdd      = "broadcast.match_add"
	ActionMatchEdit     = "broadcast.match_edit"
	ActionMatchDelete   = "broadcast.match_delete"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, clientID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldClientID, clientID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, clientID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldClientID, clientID).
		Str(FieldDetail, detail).
		Msg(msg)
}
