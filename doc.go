// Package aisleauth is the authentication and session-recovery engine behind
// the Aisle admin dashboard. It settles login, signup, password reset,
// password change, and profile updates against a remote auth gateway first
// and a local credential store second, so the dashboard keeps working when
// the backend does not.
//
// The package is designed for a single client instance: at most one session
// is active at a time, and the session survives restarts through a pluggable
// [SessionStore]. Engine methods are safe to call from multiple goroutines
// after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// aisleauth is the public surface. It exposes [Engine], [Builder], [Config],
// the store ports ([CredentialStore], [SessionStore]) with their bundled
// implementations, and the [Gateway] port with an HTTP/JSON client. Password
// hashing and token minting live in the password and jwt sub-packages.
//
// # Settlement contract
//
// Every operation settles: expected business failures surface as a false
// bool or a Result with OK=false and a human-readable message, transport
// failures of the gateway or a store select the fallback path or settle
// false, and nothing panics or leaks wrapped transport errors across the
// public boundary.
package aisleauth
