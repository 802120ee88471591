package aisleauth

import (
	"context"
	"crypto/subtle"

	"go.uber.org/zap"
)

// RequestChangePassword verifies the current password of the active session
// and stages next behind a change challenge. The store is not touched until
// [Engine.VerifyChangePassword] commits. The flow is local only; the remote
// backend has no part in it.
func (e *Engine) RequestChangePassword(ctx context.Context, current, next string) bool {
	if e == nil {
		return false
	}
	e.beginOp()
	defer e.endOp()

	session, ok := e.currentSession()
	if !ok {
		return false
	}
	if len(next) < e.config.Password.MinLength {
		e.metricInc(MetricChangeRejected)
		return false
	}

	e.sleepFallbackLatency(ctx)

	profile := session.Profile
	if profile.ID == adminAccountID {
		if !e.verifyAdminPassword(current) {
			e.metricInc(MetricChangeRejected)
			e.emitAudit(ctx, auditEventChangeRejected, false, profile.ID, profile.Email, ErrInvalidCredentials, nil)
			return false
		}
		// Staging still hashes so the commit path is uniform, even though
		// the administrator commit is a no-op.
		return e.stageChange(ctx, profile, next)
	}

	account, err := e.creds.GetByID(ctx, profile.ID)
	if err != nil {
		e.metricInc(MetricChangeRejected)
		e.emitAudit(ctx, auditEventChangeRejected, false, profile.ID, profile.Email, err, nil)
		return false
	}

	ok, err = e.hasher.Verify(current, account.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricChangeRejected)
		e.emitAudit(ctx, auditEventChangeRejected, false, profile.ID, profile.Email, ErrInvalidCredentials, nil)
		return false
	}

	return e.stageChange(ctx, profile, next)
}

func (e *Engine) stageChange(ctx context.Context, profile Profile, next string) bool {
	hash, err := e.hasher.Hash(next)
	if err != nil {
		e.metricInc(MetricChangeRejected)
		e.emitAudit(ctx, auditEventChangeRejected, false, profile.ID, profile.Email, err, nil)
		return false
	}

	e.changeFlow.Open(profile.Email, profile.ID, hash)
	e.metricInc(MetricChangeStaged)
	e.emitAudit(ctx, auditEventChangeStaged, true, profile.ID, profile.Email, nil, nil)
	return true
}

// VerifyChangePassword commits the staged credential when code matches the
// configured change code. The staged challenge must belong to the current
// session; with no staged challenge, a foreign challenge, or a wrong code it
// settles false and leaves the challenge as it was. The administrator
// account commits nothing durable. Success clears the challenge.
func (e *Engine) VerifyChangePassword(ctx context.Context, code string) bool {
	if e == nil {
		return false
	}
	e.beginOp()
	defer e.endOp()

	challenge, ok := e.changeFlow.Current()
	if !ok {
		e.metricInc(MetricChangeRejected)
		return false
	}

	session, ok := e.currentSession()
	if !ok || session.Profile.ID != challenge.AccountID {
		e.metricInc(MetricChangeRejected)
		e.emitAudit(ctx, auditEventChangeRejected, false, challenge.AccountID, challenge.Email, ErrNoChallenge, nil)
		return false
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(e.config.OTP.ChangeCode)) != 1 {
		e.metricInc(MetricChangeRejected)
		e.emitAudit(ctx, auditEventChangeRejected, false, challenge.AccountID, challenge.Email, ErrCodeInvalid, nil)
		return false
	}

	if challenge.AccountID == adminAccountID {
		e.changeFlow.Clear()
		e.metricInc(MetricChangeCommitted)
		e.emitAudit(ctx, auditEventChangeCommitted, true, challenge.AccountID, challenge.Email, nil, nil)
		return true
	}

	account, err := e.creds.GetByID(ctx, challenge.AccountID)
	if err != nil {
		e.metricInc(MetricChangeRejected)
		e.emitAudit(ctx, auditEventChangeRejected, false, challenge.AccountID, challenge.Email, err, nil)
		return false
	}

	account.PasswordHash = challenge.StagedHash
	if err := e.creds.Update(ctx, account); err != nil {
		e.logger.Warn("password change commit failed", zap.Error(err))
		e.metricInc(MetricChangeRejected)
		e.emitAudit(ctx, auditEventChangeRejected, false, challenge.AccountID, challenge.Email, err, nil)
		return false
	}

	e.changeFlow.Clear()
	e.metricInc(MetricChangeCommitted)
	e.emitAudit(ctx, auditEventChangeCommitted, true, challenge.AccountID, challenge.Email, nil, nil)
	return true
}
