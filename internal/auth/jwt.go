package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/models"
)

// ErrUnauthenticated is returned when a request carries no valid credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// JWTVerifier validates API tokens issued by a TokenIssuer with the same secret.
type JWTVerifier struct {
	secret []byte
	issuer string
	kid    string
}

// NewJWTVerifier creates a verifier that accepts tokens from issuer.
func NewJWTVerifier(issuer *TokenIssuer) *JWTVerifier {
	return &JWTVerifier{secret: issuer.secret, issuer: issuer.issuer, kid: issuer.kid}
}

// Verify checks the token signature, expiry and issuer and returns the identity it carries.
// Tokens are self-contained; no store lookup happens here.
func (v *JWTVerifier) Verify(tokenString string) (access.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		if kid, _ := t.Header["kid"].(string); kid != v.kid {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return v.secret, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return access.Identity{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return access.Identity{}, errors.New("invalid token")
	}

	return identityFromClaims(claims)
}

// VerifyRequest verifies the bearer token of r.
func (v *JWTVerifier) VerifyRequest(r *http.Request) (access.Identity, error) {
	tokenString := extractBearerToken(r)
	if tokenString == "" {
		return access.Identity{}, ErrUnauthenticated
	}
	return v.Verify(tokenString)
}

func identityFromClaims(claims *Claims) (access.Identity, error) {
	userID, err := parseUUID(claims.Subject, "sub")
	if err != nil {
		return access.Identity{}, err
	}

	orgID, err := parseUUID(claims.OrgID, "org")
	if err != nil {
		return access.Identity{}, err
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return access.Identity{}, fmt.Errorf("invalid role claim: %w", err)
	}

	id := access.Identity{UserID: userID, OrgID: orgID, Role: role}

	if role == models.RoleAgent {
		if id.AgentID, err = parseUUID(claims.AgentID, "agent"); err != nil {
			return access.Identity{}, err
		}
	}

	return id, nil
}

// extractBearerToken extracts the JWT from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

// parseUUID parses a UUID claim value.
func parseUUID(value, key string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("missing %s claim", key)
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s UUID: %w", key, err)
	}

	return id, nil
}
