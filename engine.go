package aisleauth

import (
	"context"
	"crypto/subtle"
	mrand "math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/aislehq/aisleauth/jwt"
	"github.com/aislehq/aisleauth/password"
)

// adminAccountID is the synthetic id carried by administrator sessions. It
// never appears in a credential store.
const adminAccountID = "admin"

// Engine is the authentication state machine: it settles every operation
// against the remote gateway first and the local stores second, tracks the
// OTP challenges of the reset and change flows, and owns the single current
// session. Build one with [New]; all methods are safe for concurrent use.
type Engine struct {
	config   Config
	gateway  Gateway
	creds    CredentialStore
	sessions SessionStore

	resetFlow  *challengeTracker
	changeFlow *challengeTracker

	hasher  *password.Argon2
	tokens  *jwt.Manager
	audit   *auditDispatcher
	metrics *Metrics
	logger  *zap.Logger
	now     func() time.Time

	inFlight atomic.Int64

	mu      sync.RWMutex
	current *Session
}

// Close flushes the audit dispatcher. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// InFlight reports whether any operation is currently executing. UIs use it
// to gate their busy indicator.
func (e *Engine) InFlight() bool {
	if e == nil {
		return false
	}
	return e.inFlight.Load() > 0
}

func (e *Engine) beginOp() {
	e.inFlight.Add(1)
}

func (e *Engine) endOp() {
	e.inFlight.Add(-1)
}

// CurrentUser returns the profile of the active session, if any.
func (e *Engine) CurrentUser() (Profile, bool) {
	if e == nil {
		return Profile{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return Profile{}, false
	}
	return e.current.Profile, true
}

// currentSession returns a copy of the active session.
func (e *Engine) currentSession() (Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return Session{}, false
	}
	return *e.current, true
}

// Restore loads the persisted session at client start and makes it current.
// A missing or malformed record reports absence; the malformed case is
// scrubbed by the store so the next start is clean.
func (e *Engine) Restore(ctx context.Context) (Profile, bool) {
	if e == nil || e.sessions == nil {
		return Profile{}, false
	}
	e.beginOp()
	defer e.endOp()

	session, err := e.sessions.Load(ctx)
	if err != nil {
		e.logger.Debug("session restore settled empty", zap.Error(err))
		return Profile{}, false
	}

	e.mu.Lock()
	e.current = &session
	e.mu.Unlock()

	e.metricInc(MetricSessionRestored)
	e.emitAudit(ctx, auditEventSessionRestored, true, session.Profile.ID, session.Profile.Email, nil, nil)
	return session.Profile, true
}

// Login authenticates against the gateway first; on transport failure or
// rejection it falls back to the administrator credential and the local
// credential store. Success persists the session. Failure always carries the
// same message regardless of which check rejected.
func (e *Engine) Login(ctx context.Context, email, pass string) Result {
	if e == nil {
		return Result{OK: false, Message: msgInvalidCredentials}
	}
	e.beginOp()
	defer e.endOp()

	email = normalizeEmail(email)

	if e.gateway != nil {
		remote, err := e.gateway.Login(ctx, email, pass)
		switch {
		case err != nil:
			e.metricInc(MetricGatewayUnavailable)
			e.logger.Debug("login gateway unavailable", zap.Error(err))
		case remote.Decision == GatewayAccepted:
			e.adoptSession(ctx, remote.Profile, remote.Token)
			e.metricInc(MetricLoginSuccess)
			e.emitAudit(ctx, auditEventLoginSuccess, true, remote.Profile.ID, email, nil, nil)
			return Result{OK: true}
		default:
			e.logger.Debug("login rejected by gateway", zap.String("message", remote.Message))
		}
	}

	return e.loginFallback(ctx, email, pass)
}

func (e *Engine) loginFallback(ctx context.Context, email, pass string) Result {
	e.sleepFallbackLatency(ctx)

	if e.isAdmin(email) && e.verifyAdminPassword(pass) {
		profile := e.adminProfile()
		token, err := e.mintToken(profile)
		if err != nil {
			e.logger.Warn("admin token mint failed", zap.Error(err))
			return e.loginFailure(ctx, email, ErrInvalidCredentials)
		}
		e.adoptSession(ctx, profile, token)
		e.metricInc(MetricLoginFallback)
		e.emitAudit(ctx, auditEventLoginSuccess, true, adminAccountID, email, nil, fallbackMetadata)
		return Result{OK: true}
	}

	account, err := e.creds.GetByEmail(ctx, email)
	if err != nil {
		return e.loginFailure(ctx, email, err)
	}

	ok, err := e.hasher.Verify(pass, account.PasswordHash)
	if err != nil || !ok {
		return e.loginFailure(ctx, email, ErrInvalidCredentials)
	}

	e.maybeRehash(ctx, account, pass)

	profile := account.Profile()
	token, err := e.mintToken(profile)
	if err != nil {
		e.logger.Warn("token mint failed", zap.Error(err))
		return e.loginFailure(ctx, email, ErrInvalidCredentials)
	}

	e.adoptSession(ctx, profile, token)
	e.metricInc(MetricLoginFallback)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account.ID, email, nil, fallbackMetadata)
	return Result{OK: true}
}

func (e *Engine) loginFailure(ctx context.Context, email string, cause error) Result {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, "", email, cause, nil)
	return Result{OK: false, Message: msgInvalidCredentials}
}

// Logout clears the session and every in-flight challenge. It never fails:
// remote revocation and store clearing are best-effort.
func (e *Engine) Logout(ctx context.Context) {
	if e == nil {
		return
	}
	e.beginOp()
	defer e.endOp()

	session, had := e.currentSession()

	if e.gateway != nil && had && session.Token != "" {
		if err := e.gateway.Logout(ctx, session.Token); err != nil {
			e.logger.Debug("remote logout failed", zap.Error(err))
		}
	}

	if e.sessions != nil {
		if err := e.sessions.Clear(ctx); err != nil {
			e.logger.Warn("session clear failed", zap.Error(err))
		}
	}

	e.mu.Lock()
	e.current = nil
	e.mu.Unlock()

	e.resetFlow.Clear()
	e.changeFlow.Clear()

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, session.Profile.ID, session.Profile.Email, nil, nil)
}

// adoptSession makes profile the current user and persists the session.
// Persistence failures degrade to a memory-only session rather than failing
// the login that produced it.
func (e *Engine) adoptSession(ctx context.Context, profile Profile, token string) {
	session := Session{
		Profile:   profile,
		Token:     token,
		CreatedAt: e.now().Unix(),
	}

	if e.sessions != nil {
		if err := e.sessions.Save(ctx, session); err != nil {
			e.logger.Warn("session persist failed", zap.Error(err))
		}
	}

	e.mu.Lock()
	e.current = &session
	e.mu.Unlock()

	// A staged password change dies with the session that staged it.
	e.changeFlow.Clear()
}

func (e *Engine) persistCurrent(ctx context.Context, session Session) {
	e.mu.Lock()
	copied := session
	e.current = &copied
	e.mu.Unlock()

	if e.sessions != nil {
		if err := e.sessions.Save(ctx, session); err != nil {
			e.logger.Warn("session persist failed", zap.Error(err))
		}
	}
}

// maybeRehash upgrades a credential hashed under older cost settings after
// the password has verified. Best-effort: the login that triggered it does
// not fail when the rewrite does.
func (e *Engine) maybeRehash(ctx context.Context, account Account, pass string) {
	upgrade, err := e.hasher.NeedsUpgrade(account.PasswordHash)
	if err != nil || !upgrade {
		return
	}

	hash, err := e.hasher.Hash(pass)
	if err != nil {
		e.logger.Warn("credential rehash failed", zap.Error(err))
		return
	}
	account.PasswordHash = hash
	if err := e.creds.Update(ctx, account); err != nil {
		e.logger.Warn("credential rehash persist failed", zap.Error(err))
	}
}

func (e *Engine) mintToken(profile Profile) (string, error) {
	return e.tokens.Mint(profile.ID, profile.Email, e.now())
}

func (e *Engine) isAdmin(email string) bool {
	return normalizeEmail(email) == normalizeEmail(e.config.Admin.Email)
}

func (e *Engine) verifyAdminPassword(pass string) bool {
	return subtle.ConstantTimeCompare([]byte(pass), []byte(e.config.Admin.Password)) == 1
}

func (e *Engine) adminProfile() Profile {
	return Profile{
		ID:        adminAccountID,
		Email:     normalizeEmail(e.config.Admin.Email),
		FirstName: e.config.Admin.Name,
	}
}

// sleepFallbackLatency holds a fallback operation for a random duration
// inside the configured bounds so local paths pace like remote ones.
func (e *Engine) sleepFallbackLatency(ctx context.Context) {
	min, max := e.config.Fallback.MinLatency, e.config.Fallback.MaxLatency
	if max <= 0 {
		return
	}
	delay := min
	if span := max - min; span > 0 {
		delay += time.Duration(mrand.Int63n(int64(span) + 1))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fallbackMetadata() map[string]string {
	return map[string]string{"path": "fallback"}
}
