package aisleauth

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RequestPasswordReset opens (or reissues) a reset challenge for email,
// gateway first. The fallback path succeeds only when the email belongs to
// the administrator or to a stored account. A reissue replaces the previous
// challenge and restarts its resend cooldown.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) bool {
	if e == nil {
		return false
	}
	e.beginOp()
	defer e.endOp()

	email = normalizeEmail(email)

	if e.gateway != nil {
		ack, err := e.gateway.ForgotPassword(ctx, email)
		switch {
		case err != nil:
			e.metricInc(MetricGatewayUnavailable)
			e.logger.Debug("password reset gateway unavailable", zap.Error(err))
		case ack.Decision == GatewayAccepted:
			e.openResetChallenge(ctx, email, "")
			return true
		default:
			e.logger.Debug("password reset rejected by gateway", zap.String("message", ack.Message))
		}
	}

	return e.resetFallback(ctx, email)
}

func (e *Engine) resetFallback(ctx context.Context, email string) bool {
	e.sleepFallbackLatency(ctx)

	if e.isAdmin(email) {
		e.openResetChallenge(ctx, email, adminAccountID)
		return true
	}

	account, err := e.creds.GetByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricResetFailed)
		e.emitAudit(ctx, auditEventResetRequested, false, "", email, err, nil)
		return false
	}

	e.openResetChallenge(ctx, email, account.ID)
	return true
}

func (e *Engine) openResetChallenge(ctx context.Context, email, accountID string) {
	e.resetFlow.Open(email, accountID, "")
	e.metricInc(MetricResetRequested)
	e.emitAudit(ctx, auditEventResetRequested, true, accountID, email, nil, nil)
}

// ResetResendRemaining returns the time left until the open reset challenge
// may be resent, or zero when resending (or a fresh request) is permitted.
func (e *Engine) ResetResendRemaining() time.Duration {
	if e == nil {
		return 0
	}
	return e.resetFlow.ResendRemaining()
}

// ResetCountdown starts a one-second countdown over the remaining resend
// cooldown for UI consumption. The caller owns the returned Countdown and
// must Stop it when the view goes away.
func (e *Engine) ResetCountdown() *Countdown {
	return NewCountdown(e.ResetResendRemaining())
}

// VerifyOTP reports whether code is acceptable for the reset flow. The
// contract is a placeholder for a server-issued code: any code of the
// configured length passes.
func (e *Engine) VerifyOTP(email, code string) bool {
	if e == nil {
		return false
	}
	if len(code) != e.config.OTP.CodeLength {
		e.metricInc(MetricOTPRejected)
		return false
	}
	e.metricInc(MetricOTPAccepted)
	return true
}

// CompletePasswordReset commits a new password for email, gateway first. The
// code must satisfy [Engine.VerifyOTP] and the password must meet policy.
// The administrator settles true without durable mutation. Success clears
// the open reset challenge.
func (e *Engine) CompletePasswordReset(ctx context.Context, email, code, newPassword string) bool {
	if e == nil {
		return false
	}
	e.beginOp()
	defer e.endOp()

	email = normalizeEmail(email)

	if len(code) != e.config.OTP.CodeLength || len(newPassword) < e.config.Password.MinLength {
		e.metricInc(MetricResetFailed)
		e.emitAudit(ctx, auditEventResetFailed, false, "", email, ErrCodeInvalid, nil)
		return false
	}

	if e.gateway != nil {
		ack, err := e.gateway.ResetPassword(ctx, email, code, newPassword)
		switch {
		case err != nil:
			e.metricInc(MetricGatewayUnavailable)
			e.logger.Debug("password reset completion gateway unavailable", zap.Error(err))
		case ack.Decision == GatewayAccepted:
			e.settleResetSuccess(ctx, email, "")
			return true
		default:
			e.logger.Debug("password reset completion rejected by gateway", zap.String("message", ack.Message))
		}
	}

	return e.completeResetFallback(ctx, email, newPassword)
}

func (e *Engine) completeResetFallback(ctx context.Context, email, newPassword string) bool {
	e.sleepFallbackLatency(ctx)

	// The administrator credential is configuration, not data: the flow
	// settles as success without touching any store.
	if e.isAdmin(email) {
		e.settleResetSuccess(ctx, email, adminAccountID)
		return true
	}

	account, err := e.creds.GetByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricResetFailed)
		e.emitAudit(ctx, auditEventResetFailed, false, "", email, err, nil)
		return false
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricResetFailed)
		e.emitAudit(ctx, auditEventResetFailed, false, account.ID, email, err, nil)
		return false
	}

	account.PasswordHash = hash
	if err := e.creds.Update(ctx, account); err != nil {
		e.metricInc(MetricResetFailed)
		e.emitAudit(ctx, auditEventResetFailed, false, account.ID, email, err, nil)
		return false
	}

	e.settleResetSuccess(ctx, email, account.ID)
	return true
}

func (e *Engine) settleResetSuccess(ctx context.Context, email, accountID string) {
	e.resetFlow.Clear()
	e.metricInc(MetricResetCompleted)
	e.emitAudit(ctx, auditEventResetCompleted, true, accountID, email, nil, nil)
}
