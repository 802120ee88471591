package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config configures a Manager. SigningKey is the HS256 secret; tokens signed
// with a different key or algorithm fail Parse.
type Config struct {
	TTL        time.Duration
	SigningKey []byte
	Issuer     string
	Leeway     time.Duration
}

// Manager mints and parses the HS256 session tokens issued on fallback
// logins. Safe for concurrent use.
type Manager struct {
	config Config
}

// SessionClaims are the claims carried by a locally minted session token.
type SessionClaims struct {
	AccountID string `json:"aid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("hs256 requires a signing key")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// Mint signs a session token for the given account, issued at now.
func (j *Manager) Mint(accountID, email string, now time.Time) (string, error) {
	if accountID == "" {
		return "", errors.New("account id must not be empty")
	}

	claims := SessionClaims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.config.SigningKey)
}

// Parse validates tokenStr and returns its claims. Expired, tampered or
// foreign-algorithm tokens fail.
func (j *Manager) Parse(tokenStr string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return j.config.SigningKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
