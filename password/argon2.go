package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrMalformedHash marks an encoded hash that does not parse as an
	// argon2id PHC string.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrEmptyPassword marks an attempt to hash the empty string.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Cost floors. Configurations below these are rejected outright rather than
// silently weakened.
const (
	floorMemoryKB    = 8 * 1024
	floorTime        = 1
	floorParallelism = 1
	floorSaltLen     = 16
	floorKeyLen      = 16
)

const phcScheme = "argon2id"

var b64 = base64.RawStdEncoding

// Config holds the argon2id cost parameters. Length policy on the password
// itself is the caller's concern; Hash accepts any non-empty input.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (c Config) check() error {
	switch {
	case c.Memory < floorMemoryKB:
		return fmt.Errorf("password memory must be >= %d KB", floorMemoryKB)
	case c.Time < floorTime:
		return fmt.Errorf("password time cost must be >= %d", floorTime)
	case c.Parallelism < floorParallelism:
		return fmt.Errorf("password parallelism must be >= %d", floorParallelism)
	case c.SaltLength < floorSaltLen:
		return fmt.Errorf("password salt length must be >= %d", floorSaltLen)
	case c.KeyLength < floorKeyLen:
		return fmt.Errorf("password key length must be >= %d", floorKeyLen)
	}
	return nil
}

// Argon2 hashes and verifies passwords in PHC string format. Safe for
// concurrent use.
type Argon2 struct {
	cfg Config
}

// NewArgon2 validates cfg against the cost floors and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &Argon2{cfg: cfg}, nil
}

// Hash derives a fresh-salt argon2id hash of password and encodes it as a
// PHC string. Raw string bytes are used exactly as provided, no Unicode
// normalization.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, a.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, a.cfg.Time, a.cfg.Memory, a.cfg.Parallelism, a.cfg.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcScheme, argon2.Version,
		a.cfg.Memory, a.cfg.Time, a.cfg.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded, comparing in constant
// time. The hash's own embedded parameters are used, so hashes produced
// under older cost settings still verify.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	cfg, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, cfg.Time, cfg.Memory, cfg.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the current configuration and should be rehashed on next login.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	cfg, _, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	weaker := a.cfg.Memory > cfg.Memory ||
		a.cfg.Time > cfg.Time ||
		a.cfg.Parallelism > cfg.Parallelism ||
		a.cfg.KeyLength != uint32(len(key))
	return weaker, nil
}

// decode splits a "$argon2id$v=19$m=...,t=...,p=...$salt$key" string into
// its embedded cost parameters, salt, and derived key.
func decode(encoded string) (Config, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != phcScheme {
		return Config{}, nil, nil, ErrMalformedHash
	}

	var version int
	if n, err := fmt.Sscanf(parts[2], "v=%d", &version); n != 1 || err != nil || version != argon2.Version {
		return Config{}, nil, nil, ErrMalformedHash
	}

	var cfg Config
	if strings.Count(parts[3], ",") != 2 {
		return Config{}, nil, nil, ErrMalformedHash
	}
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &cfg.Memory, &cfg.Time, &cfg.Parallelism); n != 3 || err != nil {
		return Config{}, nil, nil, ErrMalformedHash
	}
	if cfg.Memory == 0 || cfg.Time == 0 || cfg.Parallelism == 0 {
		return Config{}, nil, nil, ErrMalformedHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < floorSaltLen {
		return Config{}, nil, nil, ErrMalformedHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Config{}, nil, nil, ErrMalformedHash
	}

	return cfg, salt, key, nil
}
