package login

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/crm"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/store/memory"
)

type testEnv struct {
	all    store.Stores
	stores Stores
	gh     *Github
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	all := memory.NewStores()
	stores := Stores{Sessions: all.Sessions, Users: all.Users, Agents: all.Agents}

	gh, err := NewGithub("test-client-id", "test-client-secret", "http://localhost/callback", stores, crm.NewProvisioner(all), 24*time.Hour, opts...)
	require.NoError(t, err)

	return &testEnv{all: all, stores: stores, gh: gh}
}

// createTestSession signs up an organisor and creates a session for them.
func (e *testEnv) createTestSession(t *testing.T, name, email string, ttl time.Duration) (uuid.UUID, *models.User) {
	t.Helper()
	ctx := context.Background()

	user, err := crm.NewProvisioner(e.all).Signup(ctx, crm.SignupInput{
		Username:  name,
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)

	now := time.Now()
	session := &models.Session{
		SessionID:  uuid.Must(uuid.NewV7()),
		UserID:     user.UserID,
		OrgID:      user.OrgID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		LastUsedAt: now,
	}
	require.NoError(t, e.stores.Sessions.Create(ctx, session))

	return session.SessionID, user
}

func withSession(r *http.Request, sessionID string) *http.Request {
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	return r
}

func TestNewGithub(t *testing.T) {
	env := newTestEnv(t)

	require.NotNil(t, env.gh.config)
	require.Equal(t, "test-client-id", env.gh.config.ClientID)
	require.Equal(t, "http://localhost/callback", env.gh.config.RedirectURL)
	require.Equal(t, []string{"user:email"}, env.gh.config.Scopes)
	require.Equal(t, 24*time.Hour, env.gh.sessionTTL)
	require.Equal(t, "/leads/", env.gh.landingURL)
}

func TestNewGithub_invalid(t *testing.T) {
	all := memory.NewStores()
	stores := Stores{Sessions: all.Sessions, Users: all.Users, Agents: all.Agents}
	provisioner := crm.NewProvisioner(all)

	tests := []struct {
		name    string
		build   func() (*Github, error)
		message string
	}{
		{"missing stores", func() (*Github, error) {
			return NewGithub("id", "secret", "http://localhost/callback", Stores{}, provisioner, time.Hour)
		}, "all stores"},
		{"missing provisioner", func() (*Github, error) {
			return NewGithub("id", "secret", "http://localhost/callback", stores, nil, time.Hour)
		}, "provisioner"},
		{"missing credentials", func() (*Github, error) {
			return NewGithub("", "secret", "http://localhost/callback", stores, provisioner, time.Hour)
		}, "client ID"},
		{"zero ttl", func() (*Github, error) {
			return NewGithub("id", "secret", "http://localhost/callback", stores, provisioner, 0)
		}, "session TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestGithub_saveState(t *testing.T) {
	env := newTestEnv(t)

	states := make(map[string]bool)
	for range 10 {
		w := httptest.NewRecorder()
		state := env.gh.saveState(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		require.Greater(t, len(state), 10)
		states[state] = true

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, "state", cookies[0].Name)
		require.Equal(t, state, cookies[0].Value)
		require.True(t, cookies[0].HttpOnly)
		require.True(t, cookies[0].Secure)
	}

	require.Len(t, states, 10)
}

func TestGithub_LoginHandler(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.gh.LoginHandler(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	require.Contains(t, location, "github.com/login/oauth/authorize")
	require.Contains(t, location, "client_id=test-client-id")
	require.Contains(t, location, "scope=user%3Aemail")
}

func TestGithub_CallbackHandler_invalidRequest(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		query  string
		cookie string
	}{
		{"missing code", "?state=abc", "abc"},
		{"missing state", "?code=abc", "abc"},
		{"missing state cookie", "?state=abc&code=xyz", ""},
		{"state mismatch", "?state=abc&code=xyz", "different"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/github/callback"+tt.query, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "state", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			env.gh.CallbackHandler(w, r)

			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Contains(t, w.Body.String(), "Authentication failed")
		})
	}
}

// fakeGitHub serves the OAuth token endpoint and the user API.
func fakeGitHub(t *testing.T, login, name string, emails []githubEmail) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_test", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(UserInfo{ID: 42, Login: login, Name: name, Email: "public@example.com"})
	})
	mux.HandleFunc("GET /user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(emails)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func callback(t *testing.T, gh *Github) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, "/github/callback?"+url.Values{"state": {"s"}, "code": {"c"}}.Encode(), nil)
	r.AddCookie(&http.Cookie{Name: "state", Value: "s"})
	w := httptest.NewRecorder()
	gh.CallbackHandler(w, r)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestGithub_CallbackHandler_signsUpNewUser(t *testing.T) {
	srv := fakeGitHub(t, "octocat", "Mona Lisa Octocat", []githubEmail{
		{Email: "unverified@example.com", Primary: false, Verified: false},
		{Email: "mona@example.com", Primary: true, Verified: true},
	})
	env := newTestEnv(t, WithEndpoints(oauth2.Endpoint{
		AuthURL:  srv.URL + "/login/oauth/authorize",
		TokenURL: srv.URL + "/login/oauth/access_token",
	}, srv.URL), WithHTTPClient(srv.Client()))

	w := callback(t, env.gh)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(t, "/leads/", w.Header().Get("Location"))

	cookie := sessionCookie(t, w)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)

	ctx := context.Background()
	user, err := env.stores.Users.GetByEmail(ctx, "mona@example.com")
	require.NoError(t, err)
	require.Equal(t, models.RoleOrganisor, user.Role)
	require.Equal(t, "octocat", user.Username)
	require.Equal(t, "Mona", user.FirstName)
	require.Equal(t, "Lisa Octocat", user.LastName)

	_, err = env.all.Categories.GetByName(ctx, user.OrgID, models.ConvertedCategoryName)
	require.NoError(t, err)

	id, err := env.gh.IdentityFromSession(withSession(httptest.NewRequest(http.MethodGet, "/", nil), cookie.Value))
	require.NoError(t, err)
	require.Equal(t, user.UserID, id.UserID)
	require.True(t, id.IsOrganisor())
}

func TestGithub_CallbackHandler_matchesExistingUser(t *testing.T) {
	srv := fakeGitHub(t, "agent-gh", "Agent Smith", []githubEmail{{Email: "AGENT@example.com", Primary: true, Verified: true}})
	env := newTestEnv(t, WithEndpoints(oauth2.Endpoint{TokenURL: srv.URL + "/login/oauth/access_token"}, srv.URL))

	// An agent created by their organisor logs in with the same email
	ctx := context.Background()
	_, owner := env.createTestSession(t, "owner", "owner@example.com", time.Hour)
	organisor, err := access.Resolve(ctx, env.all.Users, env.all.Agents, owner.UserID)
	require.NoError(t, err)
	agent, err := crm.NewAgentService(env.all).Create(ctx, organisor, crm.AgentInput{Email: "agent@example.com", Username: "agent"})
	require.NoError(t, err)

	w := callback(t, env.gh)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	id, err := env.gh.IdentityFromSession(withSession(httptest.NewRequest(http.MethodGet, "/", nil), sessionCookie(t, w).Value))
	require.NoError(t, err)
	require.True(t, id.IsAgent())
	require.Equal(t, agent.AgentID, id.AgentID)
	require.Equal(t, owner.OrgID, id.OrgID)
}

func TestGithub_CallbackHandler_usernameTaken(t *testing.T) {
	srv := fakeGitHub(t, "owner", "", []githubEmail{{Email: "second@example.com", Primary: true, Verified: true}})
	env := newTestEnv(t, WithEndpoints(oauth2.Endpoint{TokenURL: srv.URL + "/login/oauth/access_token"}, srv.URL))
	env.createTestSession(t, "owner", "owner@example.com", time.Hour)

	w := callback(t, env.gh)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	user, err := env.stores.Users.GetByEmail(context.Background(), "second@example.com")
	require.NoError(t, err)
	require.Equal(t, "second@example.com", user.Username)
}

func TestGithub_CallbackHandler_noVerifiedEmail(t *testing.T) {
	srv := fakeGitHub(t, "octocat", "", []githubEmail{{Email: "mona@example.com", Primary: true, Verified: false}})
	env := newTestEnv(t, WithEndpoints(oauth2.Endpoint{TokenURL: srv.URL + "/login/oauth/access_token"}, srv.URL))

	w := callback(t, env.gh)
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, err := env.stores.Users.GetByEmail(context.Background(), "public@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestGithub_GetSession(t *testing.T) {
	env := newTestEnv(t)
	sessionID, user := env.createTestSession(t, "tester", "test@example.com", time.Hour)
	expiredID, _ := env.createTestSession(t, "expired", "expired@example.com", -time.Hour)

	t.Run("valid", func(t *testing.T) {
		session, err := env.gh.GetSession(withSession(httptest.NewRequest(http.MethodGet, "/", nil), sessionID.String()))
		require.NoError(t, err)
		require.Equal(t, sessionID, session.SessionID)
		require.Equal(t, user.UserID, session.UserID)
		require.Equal(t, "Test User", session.Name)
		require.Equal(t, "test@example.com", session.Email)
	})

	tests := []struct {
		name   string
		cookie string
		want   error
	}{
		{"no cookie", "", ErrInvalidSession},
		{"not a uuid", "not-a-uuid", ErrInvalidSession},
		{"unknown session", uuid.Must(uuid.NewV7()).String(), ErrInvalidSession},
		{"expired", expiredID.String(), ErrExpiredSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r = withSession(r, tt.cookie)
			}
			session, err := env.gh.GetSession(r)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, session)
		})
	}
}

func TestGithub_RequireAuth(t *testing.T) {
	env := newTestEnv(t)
	sessionID, user := env.createTestSession(t, "tester", "test@example.com", time.Hour)
	expiredID, _ := env.createTestSession(t, "expired", "expired@example.com", -time.Hour)

	t.Run("valid session", func(t *testing.T) {
		var (
			called  bool
			session *SessionData
			id      access.Identity
		)
		h := env.gh.RequireAuth("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			session, _ = SessionFromContext(r.Context())
			id, _ = access.IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/leads/", nil), sessionID.String()))

		require.True(t, called)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, sessionID, session.SessionID)
		require.Equal(t, user.UserID, id.UserID)
		require.True(t, id.IsOrganisor())
	})

	tests := []struct {
		name     string
		cookie   string
		location string
	}{
		{"no session", "", "/login?error_code=invalid"},
		{"invalid session", "invalid-session-id", "/login?error_code=invalid"},
		{"expired session", expiredID.String(), "/login?error_code=expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			h := env.gh.RequireAuth("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			r := httptest.NewRequest(http.MethodGet, "/leads/", nil)
			if tt.cookie != "" {
				r = withSession(r, tt.cookie)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			require.False(t, called)
			require.Equal(t, http.StatusFound, w.Code)
			require.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}

func TestSessionFromContext_notPresent(t *testing.T) {
	session, ok := SessionFromContext(context.Background())
	require.False(t, ok)
	require.Nil(t, session)
}

func TestGithub_LogoutHandler(t *testing.T) {
	env := newTestEnv(t)
	sessionID, _ := env.createTestSession(t, "tester", "test@example.com", time.Hour)

	w := httptest.NewRecorder()
	env.gh.LogoutHandler(w, withSession(httptest.NewRequest(http.MethodPost, "/logout", nil), sessionID.String()))

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, SessionCookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Equal(t, -1, cookies[0].MaxAge)

	_, err := env.stores.Sessions.Get(context.Background(), sessionID)
	require.ErrorIs(t, err, store.ErrSessionNotFound)

	t.Run("without a session", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.gh.LogoutHandler(w, httptest.NewRequest(http.MethodPost, "/logout", nil))

		require.Equal(t, http.StatusFound, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestGithub_WithSecureCookies(t *testing.T) {
	env := newTestEnv(t, WithSecureCookies(false))

	w := httptest.NewRecorder()
	env.gh.saveState(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.False(t, cookies[0].Secure)
}
