package login

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/crm"
	httpmiddleware "github.com/wolfeidau/leadtrack/internal/http"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/telemetry"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

// SessionCookieName is the cookie carrying the server-side session ID.
const SessionCookieName = "_session"

const defaultAPIBaseURL = "https://api.github.com"

type contextKey string

const sessionContextKey contextKey = "session"

// Stores are the stores the login flow reads and writes.
type Stores struct {
	Sessions store.SessionStore
	Users    store.UserStore
	Agents   store.AgentStore
}

// Validate checks that every store is present.
func (s Stores) Validate() error {
	if s.Sessions == nil || s.Users == nil || s.Agents == nil {
		return errors.New("all stores (sessions, users, agents) are required")
	}
	return nil
}

// Provisioner signs up users whose email is not yet known.
type Provisioner interface {
	Signup(ctx context.Context, in crm.SignupInput) (*models.User, error)
}

// Option configures a Github login handler.
type Option func(*Github)

// WithHTTPClient sets the client used for the token exchange and GitHub API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Github) {
		g.httpClient = client
	}
}

// WithEndpoints overrides the GitHub OAuth endpoint and API base URL.
func WithEndpoints(endpoint oauth2.Endpoint, apiBaseURL string) Option {
	return func(g *Github) {
		g.config.Endpoint = endpoint
		g.apiBaseURL = strings.TrimSuffix(apiBaseURL, "/")
	}
}

// WithSecureCookies controls the Secure attribute of the state and session cookies.
func WithSecureCookies(secure bool) Option {
	return func(g *Github) {
		g.secureCookies = secure
	}
}

// WithLandingURL sets where users are sent after logging in.
func WithLandingURL(url string) Option {
	return func(g *Github) {
		g.landingURL = url
	}
}

type Github struct {
	config      *oauth2.Config
	stores      Stores
	provisioner Provisioner
	sessionTTL  time.Duration
	httpClient  *http.Client
	apiBaseURL  string
	landingURL  string

	secureCookies bool
}

func NewGithub(clientID, clientSecret, callbackURL string, stores Stores, provisioner Provisioner, sessionTTL time.Duration, opts ...Option) (*Github, error) {
	if err := stores.Validate(); err != nil {
		return nil, err
	}

	if provisioner == nil {
		return nil, fmt.Errorf("provisioner is required")
	}

	if clientID == "" || clientSecret == "" || callbackURL == "" {
		return nil, fmt.Errorf("client ID, client secret, and callback URL are required")
	}

	if sessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}

	g := &Github{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
		stores:      stores,
		provisioner: provisioner,
		sessionTTL:  sessionTTL,
		httpClient:  http.DefaultClient,
		apiBaseURL:  defaultAPIBaseURL,
		landingURL:  "/leads/",

		secureCookies: true,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// SessionData holds the authenticated user's session information
type SessionData struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	OrgID     uuid.UUID
	Email     string
	Name      string
	ExpiresAt time.Time
}

// GetSession extracts and validates the session from a request
func (g *Github) GetSession(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, ErrInvalidSession
	}

	sessionID, err := uuid.Parse(cookie.Value)
	if err != nil {
		log.Debug().Msg("Invalid session cookie format")
		return nil, ErrInvalidSession
	}

	ctx := r.Context()

	session, err := g.stores.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionExpired) {
			log.Debug().Str("session_id", sessionID.String()).Msg("Session expired")
			return nil, ErrExpiredSession
		}
		log.Debug().Err(err).Str("session_id", sessionID.String()).Msg("Session lookup failed")
		return nil, ErrInvalidSession
	}

	user, err := g.stores.Users.Get(ctx, session.UserID)
	if err != nil {
		log.Debug().Err(err).Str("user_id", session.UserID.String()).Msg("Session user lookup failed")
		return nil, ErrInvalidSession
	}

	if err := g.stores.Sessions.UpdateLastUsed(ctx, sessionID, time.Now()); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to update session last used")
	}

	return &SessionData{
		SessionID: session.SessionID,
		UserID:    user.UserID,
		OrgID:     user.OrgID,
		Email:     user.Email,
		Name:      user.FullName(),
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// IdentityFromSession resolves the access identity of the logged-in user.
func (g *Github) IdentityFromSession(r *http.Request) (access.Identity, error) {
	session, err := g.GetSession(r)
	if err != nil {
		return access.Identity{}, err
	}
	return g.ResolveIdentity(r.Context(), session.UserID)
}

// ResolveIdentity loads the current access identity of userID from the stores.
func (g *Github) ResolveIdentity(ctx context.Context, userID uuid.UUID) (access.Identity, error) {
	return access.Resolve(ctx, g.stores.Users, g.stores.Agents, userID)
}

// RequireAuth is a middleware that protects routes by requiring a valid session.
// If the session is invalid or expired, it redirects to the specified redirectURL with an error_code query parameter.
// On success, it adds the session data and the access identity to the request context.
func (g *Github) RequireAuth(redirectURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := g.GetSession(r)
			if err != nil {
				// Determine error code based on error type
				errorCode := "invalid"
				if errors.Is(err, ErrExpiredSession) {
					errorCode = "expired"
					log.Debug().Str("path", r.URL.Path).Msg("Session expired, redirecting to login")
				} else {
					log.Debug().Str("path", r.URL.Path).Msg("Invalid session, redirecting to login")
				}

				http.Redirect(w, r, redirectURL+"?error_code="+errorCode, http.StatusFound)
				return
			}

			id, err := g.ResolveIdentity(r.Context(), session.UserID)
			if err != nil {
				log.Error().Err(err).Str("user_id", session.UserID.String()).Msg("Failed to resolve session identity")
				http.Redirect(w, r, redirectURL+"?error_code=invalid", http.StatusFound)
				return
			}

			log.Debug().Str("user", session.Email).Str("path", r.URL.Path).Msg("Session validated, allowing access")

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			ctx = access.WithIdentity(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the session data from the request context.
// This should be called from handlers protected by RequireAuth middleware.
func SessionFromContext(ctx context.Context) (*SessionData, bool) {
	session, ok := ctx.Value(sessionContextKey).(*SessionData)
	return session, ok
}

func (g *Github) saveState(w http.ResponseWriter, r *http.Request) string {
	// generate random state
	state := rand.Text()

	cookie := &http.Cookie{
		Name:     "state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes - enough time for OAuth flow
	}
	http.SetCookie(w, cookie)

	return state
}

func (g *Github) LoginHandler(w http.ResponseWriter, r *http.Request) {
	log.Debug().Msg("Initiating GitHub OAuth flow")

	state := g.saveState(w, r)

	// redirect to github
	http.Redirect(w, r, g.config.AuthCodeURL(state), http.StatusFound)
}

func (g *Github) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	log.Debug().Msg("OAuth callback received")

	state := r.FormValue("state")
	code := r.FormValue("code")

	if state == "" || code == "" {
		log.Warn().Msg("OAuth callback missing state or code")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	cookie, err := r.Cookie("state")
	if err != nil {
		log.Warn().Err(err).Msg("OAuth callback missing state cookie")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	if state != cookie.Value {
		log.Warn().Msg("OAuth callback state mismatch")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	log.Debug().Msg("OAuth state validated successfully")

	// Clear the state cookie after validation
	http.SetCookie(w, &http.Cookie{
		Name:     "state",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, g.httpClient)

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to exchange OAuth code for token")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	log.Debug().Msg("OAuth token exchange successful")

	userInfo, err := g.getUserInfo(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch user info from GitHub")
		http.Error(w, "Authentication failed", http.StatusBadRequest)
		return
	}

	if userInfo.Email == "" {
		log.Warn().Str("login", userInfo.Login).Msg("GitHub user has no verified primary email")
		http.Error(w, "A verified email address is required", http.StatusBadRequest)
		return
	}

	user, err := g.getOrCreateUser(r.Context(), userInfo)
	if err != nil {
		log.Error().Err(err).Str("email", userInfo.Email).Msg("Failed to get or create user")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	session := &models.Session{
		SessionID:  uuid.Must(uuid.NewV7()),
		UserID:     user.UserID,
		OrgID:      user.OrgID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(g.sessionTTL),
		LastUsedAt: now,
		UserAgent:  r.UserAgent(),
		IPAddress:  httpmiddleware.ClientIPFromContext(r.Context()),
	}

	if err := g.stores.Sessions.Create(r.Context(), session); err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	telemetry.GetMetrics().LoginsTotal.Add(r.Context(), 1)

	log.Info().
		Str("user_id", user.UserID.String()).
		Str("org_id", user.OrgID.String()).
		Str("session_id", session.SessionID.String()).
		Msg("User logged in")

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.SessionID.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(g.sessionTTL.Seconds()),
	})

	http.Redirect(w, r, g.landingURL, http.StatusFound)
}

// LogoutHandler deletes the server-side session and clears the cookie.
func (g *Github) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if sessionID, err := uuid.Parse(cookie.Value); err == nil {
			if err := g.stores.Sessions.Delete(r.Context(), sessionID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
				log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to delete session")
			} else {
				log.Info().Str("session_id", sessionID.String()).Msg("User logged out")
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

// getOrCreateUser matches the GitHub email to an existing user, or signs up a new
// organisation with the GitHub user as its organisor.
func (g *Github) getOrCreateUser(ctx context.Context, info *UserInfo) (*models.User, error) {
	user, err := g.stores.Users.GetByEmail(ctx, info.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	firstName, lastName, _ := strings.Cut(strings.TrimSpace(info.Name), " ")

	in := crm.SignupInput{
		OrgName:   info.Login,
		Username:  info.Login,
		Email:     info.Email,
		FirstName: firstName,
		LastName:  strings.TrimSpace(lastName),
	}

	user, err = g.provisioner.Signup(ctx, in)

	// The GitHub login may already be taken as a username; fall back to the email
	var verr *crm.ValidationError
	if errors.As(err, &verr) && in.Username != info.Email {
		in.Username = info.Email
		user, err = g.provisioner.Signup(ctx, in)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sign up user: %w", err)
	}

	log.Info().
		Str("user_id", user.UserID.String()).
		Str("org_id", user.OrgID.String()).
		Str("login", info.Login).
		Msg("Signed up new organisation from GitHub login")

	return user, nil
}

func (g *Github) getUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	// Add timeout to prevent hanging on slow GitHub API
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var userInfo UserInfo
	if err := g.getJSON(ctx, token, "/user", &userInfo); err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	// Only a verified primary address may match an existing user
	var emails []githubEmail
	if err := g.getJSON(ctx, token, "/user/emails", &emails); err != nil {
		return nil, fmt.Errorf("failed to fetch user emails: %w", err)
	}

	userInfo.Email = ""
	for _, email := range emails {
		if email.Primary && email.Verified {
			userInfo.Email = email.Email
			break
		}
	}

	return &userInfo, nil
}

func (g *Github) getJSON(ctx context.Context, token *oauth2.Token, path string, v any) error {
	client := g.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Validate HTTP status code
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub API returned HTTP %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

type UserInfo struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
