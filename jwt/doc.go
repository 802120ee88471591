// Package jwt mints and validates the HS256 session tokens aisleauth issues
// when a login settles on the local fallback path. The tokens are opaque to
// their consumers; the claims exist so an integrator can inspect who a
// persisted session belongs to without a round trip.
package jwt
