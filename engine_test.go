package aisleauth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// testConfig trims the argon2 cost and fallback latency so the suite stays
// fast; everything observable matches the shipped defaults.
func testConfig() Config {
	cfg := defaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.SaltLength = 16
	cfg.Password.KeyLength = 16
	cfg.Fallback.MinLatency = 0
	cfg.Fallback.MaxLatency = 0
	return cfg
}

func newTestEngine(t *testing.T, opts ...func(*Builder)) (*Engine, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	builder := New().
		WithConfig(testConfig()).
		WithStore(store)
	for _, opt := range opts {
		opt(builder)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store
}

// seedAccount creates a stored account with a properly hashed password and
// returns it.
func seedAccount(t *testing.T, engine *Engine, store *MemoryStore, email, pass string) Account {
	t.Helper()

	hash, err := engine.hasher.Hash(pass)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	account := Account{
		ID:           "acct-" + email,
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: hash,
	}
	if err := store.Create(context.Background(), account); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return account
}

// mockGateway is a counter-instrumented Gateway with scripted answers.
type mockGateway struct {
	mu sync.Mutex

	loginCalls  int
	signupCalls int
	forgotCalls int
	resetCalls  int
	logoutCalls int

	loginResult GatewayLoginResult
	loginErr    error
	signupAck   GatewayAck
	signupErr   error
	forgotAck   GatewayAck
	forgotErr   error
	resetAck    GatewayAck
	resetErr    error
	logoutErr   error
}

func (m *mockGateway) Login(context.Context, string, string) (GatewayLoginResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginCalls++
	return m.loginResult, m.loginErr
}

func (m *mockGateway) Signup(context.Context, SignupRequest) (GatewayAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signupCalls++
	return m.signupAck, m.signupErr
}

func (m *mockGateway) ForgotPassword(context.Context, string) (GatewayAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgotCalls++
	return m.forgotAck, m.forgotErr
}

func (m *mockGateway) ResetPassword(context.Context, string, string, string) (GatewayAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalls++
	return m.resetAck, m.resetErr
}

func (m *mockGateway) Logout(context.Context, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutCalls++
	return m.logoutErr
}

func (m *mockGateway) calls() (login, signup, forgot, reset, logout int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls, m.signupCalls, m.forgotCalls, m.resetCalls, m.logoutCalls
}

// unavailableGateway scripts every method to fail at transport level.
func unavailableGateway() *mockGateway {
	unavailable := fmt.Errorf("%w: connection refused", ErrGatewayUnavailable)
	return &mockGateway{
		loginErr:  unavailable,
		signupErr: unavailable,
		forgotErr: unavailable,
		resetErr:  unavailable,
		logoutErr: unavailable,
	}
}

// fixedClock returns a settable clock for cooldown tests.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(start time.Time) *fixedClock {
	return &fixedClock{now: start}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
