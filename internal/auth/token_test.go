package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/models"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecret, "https://leads.example.com")
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer(t *testing.T) {
	t.Run("short secret", func(t *testing.T) {
		_, err := NewTokenIssuer([]byte("short"), "https://leads.example.com")
		require.Error(t, err)
	})

	t.Run("missing issuer", func(t *testing.T) {
		_, err := NewTokenIssuer(testSecret, "")
		require.Error(t, err)
	})

	t.Run("kid is stable for a secret", func(t *testing.T) {
		a := newTestIssuer(t)
		b := newTestIssuer(t)
		require.NotEmpty(t, a.Kid())
		require.Equal(t, a.Kid(), b.Kid())
	})
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)
	verifier := NewJWTVerifier(issuer)

	tests := []struct {
		name string
		id   access.Identity
	}{
		{
			name: "organisor",
			id:   access.Identity{UserID: uuid.New(), OrgID: uuid.New(), Role: models.RoleOrganisor},
		},
		{
			name: "agent",
			id:   access.Identity{UserID: uuid.New(), OrgID: uuid.New(), Role: models.RoleAgent, AgentID: uuid.New()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expires, err := issuer.Issue(tt.id)
			require.NoError(t, err)
			require.WithinDuration(t, time.Now().Add(TokenTTL), expires, 5*time.Second)

			got, err := verifier.Verify(token)
			require.NoError(t, err)
			require.Equal(t, tt.id, got)
		})
	}
}

func TestJWTVerifier_rejects(t *testing.T) {
	issuer := newTestIssuer(t)
	verifier := NewJWTVerifier(issuer)
	id := access.Identity{UserID: uuid.New(), OrgID: uuid.New(), Role: models.RoleOrganisor}

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims *Claims, kid string) string {
		t.Helper()
		token := jwt.NewWithClaims(method, claims)
		token.Header["kid"] = kid
		s, err := token.SignedString(key)
		require.NoError(t, err)
		return s
	}

	validClaims := func() *Claims {
		now := time.Now()
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "https://leads.example.com",
				Subject:   id.UserID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			OrgID: id.OrgID.String(),
			Role:  id.Role.String(),
		}
	}

	t.Run("expired", func(t *testing.T) {
		stale := *issuer
		stale.now = func() time.Time { return time.Now().Add(-2 * TokenTTL) }
		token, _, err := stale.Issue(id)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("ffffffffffffffffffffffffffffffff"), validClaims(), issuer.Kid())
		_, err := verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("wrong kid", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, testSecret, validClaims(), "other")
		_, err := verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims()
		claims.Issuer = "https://evil.example.com"
		token := sign(t, jwt.SigningMethodHS256, testSecret, claims, issuer.Kid())
		_, err := verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := validClaims()
		claims.Role = "admin"
		token := sign(t, jwt.SigningMethodHS256, testSecret, claims, issuer.Kid())
		_, err := verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("agent without agent claim", func(t *testing.T) {
		claims := validClaims()
		claims.Role = models.RoleAgent.String()
		token := sign(t, jwt.SigningMethodHS256, testSecret, claims, issuer.Kid())
		_, err := verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validClaims()
		claims.ExpiresAt = nil
		token := sign(t, jwt.SigningMethodHS256, testSecret, claims, issuer.Kid())
		_, err := verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not.a.token")
		require.Error(t, err)
	})
}
