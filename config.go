package aisleauth

import (
	"errors"
	"time"
)

// Config groups all tunables of the Engine. Zero values are filled in from
// [defaultConfig] by the Builder; a Config is treated as immutable after Build.
type Config struct {
	Admin    AdminConfig
	OTP      OTPConfig
	Password PasswordConfig
	Token    TokenConfig
	Fallback FallbackConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// AdminConfig describes the single built-in administrator account. It is
// authenticated against the fixed credential below and never stored in a
// CredentialStore, so reset/change flows cannot durably alter it.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// OTPConfig carries the verification contracts of the two OTP flows.
//
// The reset flow accepts any code of CodeLength characters and the change
// flow accepts only the fixed ChangeCode. Both are placeholders for a
// server-issued code; they live here so integrators can converge the two
// contracts without API changes.
type OTPConfig struct {
	CodeLength     int
	ChangeCode     string
	ResendCooldown time.Duration
}

// PasswordConfig carries the password policy and argon2id parameters used to
// hash credentials held by the fallback stores.
type PasswordConfig struct {
	MinLength   int
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// TokenConfig configures the locally minted HS256 session token used by
// fallback logins. When SigningKey is empty the Builder generates a random
// per-process key; locally minted tokens then do not survive a restart,
// which is acceptable because the token is opaque to every consumer.
type TokenConfig struct {
	TTL        time.Duration
	SigningKey []byte
	Issuer     string
}

// FallbackConfig shapes the artificial latency applied on fallback paths so
// the UI behaves the same whether the gateway or the local store answered.
// Set both bounds to zero to disable (tests do).
type FallbackConfig struct {
	MinLatency time.Duration
	MaxLatency time.Duration
}

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration [New] starts from. Mutate the copy
// and pass it back through [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Admin: AdminConfig{
			Email:    "admin@gmail.com",
			Password: "admin123",
			Name:     "Administrator",
		},
		OTP: OTPConfig{
			CodeLength:     6,
			ChangeCode:     "123456",
			ResendCooldown: 60 * time.Second,
		},
		Password: PasswordConfig{
			MinLength:   6,
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Token: TokenConfig{
			TTL:    24 * time.Hour,
			Issuer: "aisleauth",
		},
		Fallback: FallbackConfig{
			MinLatency: 200 * time.Millisecond,
			MaxLatency: 400 * time.Millisecond,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate reports the first configuration error, if any.
func (c Config) Validate() error {
	if c.Admin.Email == "" || c.Admin.Password == "" {
		return errors.New("admin credential must be configured")
	}
	if c.OTP.CodeLength <= 0 {
		return errors.New("otp code length must be positive")
	}
	if c.OTP.ChangeCode == "" {
		return errors.New("otp change code must be configured")
	}
	if c.OTP.ResendCooldown < 0 {
		return errors.New("otp resend cooldown must not be negative")
	}
	if c.Password.MinLength < 1 {
		return errors.New("password minimum length must be >= 1")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.Fallback.MinLatency < 0 || c.Fallback.MaxLatency < c.Fallback.MinLatency {
		return errors.New("fallback latency bounds are inverted")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SigningKey = append([]byte(nil), cfg.Token.SigningKey...)
	return out
}
