package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiry is how long an issued token stays valid.
const DefaultTokenExpiry = 3 * time.Hour

// ErrInvalidToken is returned by Verify for any token that cannot be
// accepted: wrong signature, unexpected algorithm, malformed input or
// expired lifetime. Callers must not learn which of those it was.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried inside an issued token. Only the user id binds the
// token to an identity; everything else is standard bookkeeping.
type Claims struct {
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies time-bounded HS256 tokens with a
// process-wide secret. Verification is pure: no I/O, no side effects.
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager builds a TokenManager with the given secret.
// An empty expiry falls back to DefaultTokenExpiry.
func NewTokenManager(secret []byte, expiry time.Duration) (*TokenManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenManager{secret: secret, expiry: expiry}, nil
}

// NewTokenManagerFromBase64 decodes a base64-encoded secret, as supplied
// via configuration, and builds a TokenManager from it.
func NewTokenManagerFromBase64(encoded string, expiry time.Duration) (*TokenManager, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return NewTokenManager(decoded, expiry)
}

// Issue creates a signed token asserting that userID was authenticated now.
func (tm *TokenManager) Issue(userID uint64) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "game-gallery",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Verify checks token validity and returns the user id it asserts.
// Tokens signed with a different secret, signed with a non-HMAC method,
// malformed or past their expiry all fail with ErrInvalidToken.
func (tm *TokenManager) Verify(tokenString string) (uint64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})

	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

// GenerateSecureSecret generates a new random secret suitable for
// NewTokenManagerFromBase64. Used by deployment tooling, not at runtime.
func GenerateSecureSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
