package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// DefaultScope is granted to tokens minted without an explicit scope.
const DefaultScope = "extract"

// Claims identifies an API client.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// JWTManager issues and verifies HS256 bearer tokens for API clients.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTManager constructs a manager with the given secret and token lifetime.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

// Enabled reports whether a secret is configured.
func (m *JWTManager) Enabled() bool {
	return m != nil && len(m.secret) > 0
}

// GenerateToken mints a token for subject valid for the manager's TTL.
func (m *JWTManager) GenerateToken(subject, scope string) (string, error) {
	if !m.Enabled() {
		return "", eris.New("jwt secret must not be empty")
	}
	if scope == "" {
		scope = DefaultScope
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Scope: scope,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", eris.Wrap(err, "sign token")
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry of token.
func (m *JWTManager) ParseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, eris.Wrap(err, "parse token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, eris.New("invalid token claims")
	}
	return claims, nil
}
