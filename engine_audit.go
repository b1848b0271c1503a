package goSession

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MrEthical07/goSession/internal/audit"
)

const (
	auditEventSessionCreated        = "session_created"
	auditEventSessionInvalidated    = "session_invalidated"
	auditEventSessionInvalidatedAll = "session_invalidated_all"
	auditEventSignOut               = "sign_out"
	auditEventCredentialIssued      = "credential_issued"
	auditEventCredentialVerified    = "credential_verified"
	auditEventSignIn                = "sign_in"
	auditEventEmailVerified         = "email_verified"
	auditEventPasswordReset         = "password_reset"
	auditEventRateLimitTriggered    = "rate_limit_triggered"
	auditEventSweep                 = "sweep"
)

// AuditErrorCode is the coarse error classification carried by audit events.
type AuditErrorCode string

const (
	auditErrInvalidCode        AuditErrorCode = "invalid_code"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrDelivery           AuditErrorCode = "delivery_failed"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := audit.Event{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope string, purpose Purpose) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", "", ErrRateLimited, func() map[string]string {
		return map[string]string{
			"scope":   scope,
			"purpose": purpose.String(),
		}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDelivery
	case errors.Is(err, ErrStorageUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
