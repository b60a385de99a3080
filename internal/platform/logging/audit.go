package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit results.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// AuditEvent describes a security-relevant action taken on behalf of a session.
type AuditEvent struct {
	Action       string // e.g. "login", "update"
	Actor        string // doctor id or email; never the bearer token
	ResourceType string // e.g. "doctor_profile"
	ResourceID   string
	Result       string
	Details      map[string]any
}

// LogAuditEvent writes e at info level with audit.* keys.
func LogAuditEvent(ctx context.Context, e AuditEvent) {
	fields := []zap.Field{
		zap.String("audit.action", e.Action),
		zap.String("audit.actor", e.Actor),
		zap.String("audit.resource_type", e.ResourceType),
		zap.String("audit.resource_id", e.ResourceID),
		zap.String("audit.result", e.Result),
	}
	if len(e.Details) > 0 {
		fields = append(fields, zap.Any("audit.details", e.Details))
	}
	LoggerFromContext(ctx).Info("Audit event", fields...)
}
