package aisleauth

import "errors"

var (
	// ErrGatewayUnavailable is the distinguished transport-failure signal
	// returned (wrapped) by Gateway implementations. It is never surfaced to
	// callers of the Engine; it only selects the local fallback path.
	ErrGatewayUnavailable = errors.New("auth gateway unavailable")

	// ErrInvalidCredentials is returned internally when an email/password
	// pair matches neither the administrator nor a stored account.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountNotFound is returned by credential stores for unknown lookups.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateEmail is returned by credential stores when a create would
	// violate email uniqueness.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrSessionNotFound is returned by session stores when no session record
	// is persisted, or when the persisted record was malformed and cleared.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoSession marks operations that require an authenticated session.
	ErrNoSession = errors.New("no active session")

	// ErrNoChallenge marks verification attempts without an open challenge.
	ErrNoChallenge = errors.New("no open challenge")

	// ErrCodeInvalid marks a verification code that fails the flow's contract.
	ErrCodeInvalid = errors.New("verification code invalid")

	// ErrPasswordPolicy marks a password shorter than the configured minimum.
	ErrPasswordPolicy = errors.New("password policy violation")

	// ErrStoreUnavailable wraps transport failures of credential and session
	// store backends (redis down, connection refused, ...).
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEngineNotReady is returned when an Engine method is invoked on a
	// nil or unbuilt receiver.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// User-facing failure messages carried in Result.Message. The login message is
// part of the published contract and must not be reworded.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailExists        = "An account with this email already exists"
	msgInvalidEmail       = "Enter a valid email address"
	msgSignupFailed       = "Could not create account"
	msgSignupOK           = "Account created. Please log in."
)
