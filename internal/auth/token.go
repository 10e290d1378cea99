package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"

	"github.com/wolfeidau/leadtrack/internal/access"
)

// TokenTTL is the lifetime of an API token.
const TokenTTL = time.Hour

// minSecretLength is the minimum HMAC key size for HS256.
const minSecretLength = 32

// Claims are the claims carried by an API token. The subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
	OrgID   string `json:"org"`
	Role    string `json:"role"`
	AgentID string `json:"agent,omitempty"`
}

// TokenIssuer signs HS256 API tokens for authenticated identities.
type TokenIssuer struct {
	secret []byte
	issuer string
	kid    string
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer. The key ID is the base58-encoded SHA256 of the secret,
// so rotating the secret changes the kid.
func NewTokenIssuer(secret []byte, issuer string) (*TokenIssuer, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("token signing secret must be at least %d bytes", minSecretLength)
	}
	if issuer == "" {
		return nil, errors.New("token issuer is required")
	}

	hash := sha256.Sum256(secret)

	return &TokenIssuer{
		secret: secret,
		issuer: issuer,
		kid:    base58.Encode(hash[:8]),
		now:    time.Now,
	}, nil
}

// Kid returns the key ID placed in token headers.
func (ti *TokenIssuer) Kid() string {
	return ti.kid
}

// Issue signs a token for id and returns it with its expiry.
func (ti *TokenIssuer) Issue(id access.Identity) (string, time.Time, error) {
	now := ti.now()
	expires := now.Add(TokenTTL)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		OrgID: id.OrgID.String(),
		Role:  id.Role.String(),
	}
	if id.IsAgent() {
		claims.AgentID = id.AgentID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = ti.kid

	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signed, expires, nil
}
