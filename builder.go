package aisleauth

import (
	"crypto/rand"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/aislehq/aisleauth/jwt"
	"github.com/aislehq/aisleauth/password"
)

// Builder assembles an Engine. Obtain one with [New], chain the With*
// methods, then call Build once.
type Builder struct {
	config Config

	gateway  Gateway
	creds    CredentialStore
	sessions SessionStore

	auditSink AuditSink
	logger    *zap.Logger
	clock     func() time.Time

	built bool
}

// New returns a Builder loaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithGateway sets the remote auth backend. Leaving it unset builds an
// offline engine: every operation settles on the local stores.
func (b *Builder) WithGateway(gw Gateway) *Builder {
	b.gateway = gw
	return b
}

// WithCredentialStore sets the account store for the fallback path.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.creds = store
	return b
}

// WithSessionStore sets the store holding the persisted current session.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

// WithStore sets one backend as both credential and session store.
func (b *Builder) WithStore(store Store) *Builder {
	b.creds = store
	b.sessions = store
	return b
}

// WithAuditSink sets the sink receiving audit events. Implies nothing about
// Config.Audit.Enabled, which still gates dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Defaults to a nop logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the engine's time source. Tests use it to pin
// challenge cooldowns and token timestamps.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration, fills in defaults (in-memory store, nop
// logger, random per-process signing key), and returns the Engine. A Builder
// can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds := b.creds
	sessions := b.sessions
	if creds == nil && sessions == nil {
		store := NewMemoryStore()
		creds = store
		sessions = store
	}
	if creds == nil {
		return nil, errors.New("credential store required when a session store is set")
	}
	if sessions == nil {
		return nil, errors.New("session store required when a credential store is set")
	}

	if len(cfg.Token.SigningKey) == 0 {
		key := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, err
		}
		cfg.Token.SigningKey = key
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		TTL:        cfg.Token.TTL,
		SigningKey: cfg.Token.SigningKey,
		Issuer:     cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cfg,
		gateway:    b.gateway,
		creds:      creds,
		sessions:   sessions,
		resetFlow:  newChallengeTracker(cfg.OTP.ResendCooldown, clock),
		changeFlow: newChallengeTracker(cfg.OTP.ResendCooldown, clock),
		hasher:     hasher,
		tokens:     tokens,
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
		logger:     logger,
		now:        clock,
	}

	b.built = true

	return engine, nil
}
