package aisleauth

import "context"

// GatewayDecision is the business outcome of a gateway call that completed
// at transport level. The zero value is Rejected so that a forgotten field
// never reads as acceptance.
type GatewayDecision uint8

const (
	// GatewayRejected means the backend answered and declined the operation.
	GatewayRejected GatewayDecision = iota
	// GatewayAccepted means the backend answered and performed the operation.
	GatewayAccepted
)

// GatewayLoginResult is the gateway's answer to a login attempt. Token and
// Profile are only meaningful when Decision is GatewayAccepted.
type GatewayLoginResult struct {
	Decision GatewayDecision
	Message  string
	Token    string
	Profile  Profile
}

// GatewayAck is the gateway's answer to signup, forgot-password and
// reset-password calls.
type GatewayAck struct {
	Decision GatewayDecision
	Message  string
}

// Gateway is the port to the remote authentication backend. It is opaque to
// the Engine: any returned error (conventionally wrapping
// [ErrGatewayUnavailable]) is a transport failure and selects the local
// fallback path, exactly like a rejected decision. Implementations must not
// panic across this boundary.
type Gateway interface {
	Login(ctx context.Context, email, password string) (GatewayLoginResult, error)
	Signup(ctx context.Context, req SignupRequest) (GatewayAck, error)
	ForgotPassword(ctx context.Context, email string) (GatewayAck, error)
	ResetPassword(ctx context.Context, email, otp, newPassword string) (GatewayAck, error)

	// Logout revokes the token server-side. Best-effort: the Engine clears
	// local state regardless of the outcome.
	Logout(ctx context.Context, token string) error
}
