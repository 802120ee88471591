package aisleauth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Signup registers a new account, gateway first. On transport failure or
// rejection the account is created in the local credential store with a fresh
// id and a hashed credential. No session is created either way; the caller
// routes the user back to login.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) Result {
	if e == nil {
		return Result{OK: false, Message: msgSignupFailed}
	}
	e.beginOp()
	defer e.endOp()

	req.Email = normalizeEmail(req.Email)

	if !emailPattern.MatchString(req.Email) {
		e.metricInc(MetricSignupFailure)
		return Result{OK: false, Message: msgInvalidEmail}
	}
	if len(req.Password) < e.config.Password.MinLength {
		e.metricInc(MetricSignupFailure)
		return Result{
			OK:      false,
			Message: fmt.Sprintf("Password must be at least %d characters", e.config.Password.MinLength),
		}
	}

	if e.gateway != nil {
		ack, err := e.gateway.Signup(ctx, req)
		switch {
		case err != nil:
			e.metricInc(MetricGatewayUnavailable)
			e.logger.Debug("signup gateway unavailable", zap.Error(err))
		case ack.Decision == GatewayAccepted:
			e.metricInc(MetricSignupSuccess)
			e.emitAudit(ctx, auditEventSignupSuccess, true, "", req.Email, nil, nil)
			return Result{OK: true, Message: msgSignupOK}
		default:
			e.logger.Debug("signup rejected by gateway", zap.String("message", ack.Message))
		}
	}

	return e.signupFallback(ctx, req)
}

func (e *Engine) signupFallback(ctx context.Context, req SignupRequest) Result {
	e.sleepFallbackLatency(ctx)

	// The administrator email is reserved even though it never appears in
	// the store.
	if e.isAdmin(req.Email) {
		e.metricInc(MetricSignupDuplicate)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", req.Email, ErrDuplicateEmail, nil)
		return Result{OK: false, Message: msgEmailExists}
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", req.Email, err, nil)
		return Result{OK: false, Message: msgSignupFailed}
	}

	account := Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		Pronoun:      req.Pronoun,
	}

	if err := e.creds.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, auditEventSignupFailure, false, "", req.Email, err, nil)
			return Result{OK: false, Message: msgEmailExists}
		}
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", req.Email, err, nil)
		return Result{OK: false, Message: msgSignupFailed}
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignupSuccess, true, account.ID, req.Email, nil, fallbackMetadata)
	return Result{OK: true, Message: msgSignupOK}
}

// UpdateProfile applies the non-empty fields of update to the current user,
// refreshes the persisted session, and writes through to the credential
// store for non-administrator accounts. It settles false only when no
// session is active; store write failures degrade to session-only updates.
func (e *Engine) UpdateProfile(ctx context.Context, update ProfileUpdate) bool {
	if e == nil {
		return false
	}
	e.beginOp()
	defer e.endOp()

	session, ok := e.currentSession()
	if !ok {
		return false
	}

	e.sleepFallbackLatency(ctx)

	applyProfileUpdate(&session.Profile, update)
	e.persistCurrent(ctx, session)

	if session.Profile.ID != adminAccountID {
		account, err := e.creds.GetByID(ctx, session.Profile.ID)
		if err != nil {
			e.logger.Warn("profile write-through load failed", zap.Error(err))
		} else {
			applyAccountUpdate(&account, update)
			if err := e.creds.Update(ctx, account); err != nil {
				e.logger.Warn("profile write-through failed", zap.Error(err))
			}
		}
	}

	e.metricInc(MetricProfileUpdated)
	e.emitAudit(ctx, auditEventProfileUpdated, true, session.Profile.ID, session.Profile.Email, nil, nil)
	return true
}

func applyProfileUpdate(profile *Profile, update ProfileUpdate) {
	if update.FirstName != "" {
		profile.FirstName = update.FirstName
	}
	if update.LastName != "" {
		profile.LastName = update.LastName
	}
	if update.Gender != "" {
		profile.Gender = update.Gender
	}
	if update.Pronoun != "" {
		profile.Pronoun = update.Pronoun
	}
	if update.ProfileImage != "" {
		profile.ProfileImage = update.ProfileImage
	}
}

func applyAccountUpdate(account *Account, update ProfileUpdate) {
	if update.FirstName != "" {
		account.FirstName = update.FirstName
	}
	if update.LastName != "" {
		account.LastName = update.LastName
	}
	if update.Gender != "" {
		account.Gender = update.Gender
	}
	if update.Pronoun != "" {
		account.Pronoun = update.Pronoun
	}
	if update.ProfileImage != "" {
		account.ProfileImage = update.ProfileImage
	}
}
