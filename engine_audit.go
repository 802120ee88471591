package aisleauth

import (
	"context"
	"errors"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventLogout          = "logout"
	auditEventSignupSuccess   = "signup_success"
	auditEventSignupFailure   = "signup_failure"
	auditEventResetRequested  = "password_reset_requested"
	auditEventResetCompleted  = "password_reset_completed"
	auditEventResetFailed     = "password_reset_failed"
	auditEventChangeStaged    = "password_change_staged"
	auditEventChangeRejected  = "password_change_rejected"
	auditEventChangeCommitted = "password_change_committed"
	auditEventProfileUpdated  = "profile_updated"
	auditEventSessionRestored = "session_restored"
)

// auditErrorLabel maps an internal cause to the stable label carried in
// AuditEvent.Error. Unknown causes collapse to "internal_error" so raw
// transport detail never leaves the engine.
func auditErrorLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrCodeInvalid):
		return "code_invalid"
	case errors.Is(err, ErrPasswordPolicy):
		return "password_policy"
	case errors.Is(err, ErrNoSession):
		return "no_session"
	case errors.Is(err, ErrNoChallenge):
		return "no_challenge"
	case errors.Is(err, ErrGatewayUnavailable):
		return "gateway_unavailable"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	email string,
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

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Error:     auditErrorLabel(err),
		Metadata:  metadata,
	}
	e.audit.Emit(ctx, event)
}
