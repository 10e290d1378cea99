package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/models"
)

type stubSessions struct {
	id    access.Identity
	err   error
	users map[uuid.UUID]access.Identity
}

func (s stubSessions) IdentityFromSession(r *http.Request) (access.Identity, error) {
	return s.id, s.err
}

func (s stubSessions) ResolveIdentity(ctx context.Context, userID uuid.UUID) (access.Identity, error) {
	id, ok := s.users[userID]
	if !ok {
		return access.Identity{}, errors.New("user not found")
	}
	return id, nil
}

func identityEcho(t *testing.T, got *access.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := access.IdentityFromContext(r.Context())
		require.True(t, ok)
		*got = id
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestDualAuthMiddleware(t *testing.T) {
	issuer := newTestIssuer(t)
	verifier := NewJWTVerifier(issuer)

	tokenID := access.Identity{UserID: uuid.New(), OrgID: uuid.New(), Role: models.RoleOrganisor}
	sessionID := access.Identity{UserID: uuid.New(), OrgID: uuid.New(), Role: models.RoleAgent, AgentID: uuid.New()}

	token, _, err := issuer.Issue(tokenID)
	require.NoError(t, err)

	stored := map[uuid.UUID]access.Identity{tokenID.UserID: tokenID}
	noSession := errors.New("no session")

	// agent token whose role changed in the store since issue
	demoted := access.Identity{UserID: uuid.New(), OrgID: uuid.New(), Role: models.RoleOrganisor}
	demotedToken, _, err := issuer.Issue(access.Identity{UserID: demoted.UserID, OrgID: demoted.OrgID, Role: models.RoleAgent, AgentID: uuid.New()})
	require.NoError(t, err)
	stored[demoted.UserID] = demoted

	movedID := access.Identity{UserID: uuid.New(), OrgID: uuid.New(), Role: models.RoleOrganisor}
	movedToken, _, err := issuer.Issue(movedID)
	require.NoError(t, err)
	stored[movedID.UserID] = access.Identity{UserID: movedID.UserID, OrgID: uuid.New(), Role: models.RoleOrganisor}

	removedToken, _, err := issuer.Issue(access.Identity{UserID: uuid.New(), OrgID: uuid.New(), Role: models.RoleOrganisor})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		sessions   stubSessions
		wantStatus int
		want       access.Identity
	}{
		{"bearer token", "Bearer " + token, stubSessions{err: noSession, users: stored}, http.StatusNoContent, tokenID},
		{"session cookie", "", stubSessions{id: sessionID, users: stored}, http.StatusNoContent, sessionID},
		{"bearer wins over session", "Bearer " + token, stubSessions{id: sessionID, users: stored}, http.StatusNoContent, tokenID},
		{"invalid bearer does not fall back", "Bearer nope", stubSessions{id: sessionID, users: stored}, http.StatusUnauthorized, access.Identity{}},
		{"stored identity replaces claims", "Bearer " + demotedToken, stubSessions{err: noSession, users: stored}, http.StatusNoContent, demoted},
		{"removed user is rejected", "Bearer " + removedToken, stubSessions{id: sessionID, users: stored}, http.StatusUnauthorized, access.Identity{}},
		{"organisation mismatch is rejected", "Bearer " + movedToken, stubSessions{err: noSession, users: stored}, http.StatusUnauthorized, access.Identity{}},
		{"nothing", "", stubSessions{err: noSession, users: stored}, http.StatusUnauthorized, access.Identity{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got access.Identity
			h := DualAuthMiddleware(verifier, tt.sessions)(identityEcho(t, &got))

			r := httptest.NewRequest(http.MethodGet, "/api/leads/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			require.Equal(t, tt.wantStatus, w.Code)
			require.Equal(t, tt.want, got)
			if tt.wantStatus == http.StatusUnauthorized {
				require.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
			}
		})
	}
}
