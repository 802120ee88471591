package aisleauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPGateway talks JSON over HTTP to the marketplace's auth backend. A 2xx
// response settles the call as accepted, a 4xx as rejected with the backend's
// message, and anything else (5xx, transport failure, malformed body) is
// reported as an error wrapping [ErrGatewayUnavailable] so the Engine falls
// back to its local stores.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// HTTPGatewayOption customizes an HTTPGateway.
type HTTPGatewayOption func(*HTTPGateway)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(client *http.Client) HTTPGatewayOption {
	return func(g *HTTPGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// NewHTTPGateway creates a gateway rooted at baseURL, e.g.
// "https://api.example.com/v1".
func NewHTTPGateway(baseURL string, opts ...HTTPGatewayOption) *HTTPGateway {
	g := &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// gatewayEnvelope is the common response shape of the auth backend.
type gatewayEnvelope struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Token   string  `json:"token,omitempty"`
	User    Profile `json:"user,omitempty"`
}

func (g *HTTPGateway) Login(ctx context.Context, email, password string) (GatewayLoginResult, error) {
	payload := map[string]string{"email": email, "password": password}

	env, rejected, err := g.post(ctx, "/auth/login", payload)
	if err != nil {
		return GatewayLoginResult{}, err
	}
	if rejected || !env.Success {
		return GatewayLoginResult{Decision: GatewayRejected, Message: env.Message}, nil
	}
	return GatewayLoginResult{
		Decision: GatewayAccepted,
		Message:  env.Message,
		Token:    env.Token,
		Profile:  env.User,
	}, nil
}

func (g *HTTPGateway) Signup(ctx context.Context, req SignupRequest) (GatewayAck, error) {
	return g.ack(ctx, "/auth/signup", req)
}

func (g *HTTPGateway) ForgotPassword(ctx context.Context, email string) (GatewayAck, error) {
	return g.ack(ctx, "/auth/forgot-password", map[string]string{"email": email})
}

func (g *HTTPGateway) ResetPassword(ctx context.Context, email, otp, newPassword string) (GatewayAck, error) {
	return g.ack(ctx, "/auth/reset-password", map[string]string{
		"email":        email,
		"otp":          otp,
		"new_password": newPassword,
	})
}

func (g *HTTPGateway) Logout(ctx context.Context, token string) error {
	_, _, err := g.post(ctx, "/auth/logout", map[string]string{"token": token})
	return err
}

func (g *HTTPGateway) ack(ctx context.Context, path string, payload any) (GatewayAck, error) {
	env, rejected, err := g.post(ctx, path, payload)
	if err != nil {
		return GatewayAck{}, err
	}
	if rejected || !env.Success {
		return GatewayAck{Decision: GatewayRejected, Message: env.Message}, nil
	}
	return GatewayAck{Decision: GatewayAccepted, Message: env.Message}, nil
}

// post performs one JSON round trip. rejected is true for 4xx statuses, where
// the envelope still carries the backend's business message.
func (g *HTTPGateway) post(ctx context.Context, path string, payload any) (env gatewayEnvelope, rejected bool, err error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return env, false, fmt.Errorf("%w: encode request: %v", ErrGatewayUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return env, false, fmt.Errorf("%w: build request: %v", ErrGatewayUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return env, false, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return env, false, fmt.Errorf("%w: read response: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		rejected = true
	default:
		return env, false, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if rejected {
				// A 4xx with an unreadable body is still a rejection.
				return gatewayEnvelope{}, true, nil
			}
			return env, false, fmt.Errorf("%w: decode response: %v", ErrGatewayUnavailable, err)
		}
	}
	return env, rejected, nil
}
