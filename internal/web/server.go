// Package web serves the HTML pages and the JSON API over the crm services.
package web

import (
	"net/http"

	"filippo.io/csrf"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wolfeidau/leadtrack/internal/assets"
	"github.com/wolfeidau/leadtrack/internal/auth"
	"github.com/wolfeidau/leadtrack/internal/config"
	"github.com/wolfeidau/leadtrack/internal/crm"
	httpmiddleware "github.com/wolfeidau/leadtrack/internal/http"
	"github.com/wolfeidau/leadtrack/internal/logger"
)

// Authenticator provides the browser login flow and session lookups.
type Authenticator interface {
	auth.SessionProvider
	RequireAuth(redirectURL string) func(http.Handler) http.Handler
	LoginHandler(w http.ResponseWriter, r *http.Request)
	CallbackHandler(w http.ResponseWriter, r *http.Request)
	LogoutHandler(w http.ResponseWriter, r *http.Request)
}

// Services are the operations exposed over HTTP.
type Services struct {
	Leads      *crm.LeadService
	Categories *crm.CategoryService
	Agents     *crm.AgentService
}

type Option func(*Server)

// WithTracing wraps the handler with OpenTelemetry HTTP instrumentation.
func WithTracing(enabled bool) Option {
	return func(s *Server) {
		s.tracing = enabled
	}
}

type Server struct {
	settings config.Settings
	services Services
	authn    Authenticator
	issuer   *auth.TokenIssuer
	verifier *auth.JWTVerifier
	pages    *assets.Pipeline
	tracing  bool
}

func New(settings config.Settings, services Services, authn Authenticator, issuer *auth.TokenIssuer, pages *assets.Pipeline, opts ...Option) *Server {
	s := &Server{
		settings: settings,
		services: services,
		authn:    authn,
		issuer:   issuer,
		verifier: auth.NewJWTVerifier(issuer),
		pages:    pages,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the complete HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	root := http.NewServeMux()

	// API routes get CORS, HTML routes get CSRF
	root.Handle("/api/", s.withCORS(auth.DualAuthMiddleware(s.verifier, s.authn)(s.apiRoutes())))
	root.Handle("/", csrf.New().Handler(s.htmlRoutes()))

	var h http.Handler = root
	h = httpmiddleware.ClientIPMiddleware()(h)
	h = httpmiddleware.AllowedHostsMiddleware(s.settings.Hosts())(h)

	// Health checks arrive with whatever host the load balancer uses
	outer := http.NewServeMux()
	outer.HandleFunc("GET /healthz", healthz)
	outer.Handle("/", h)

	h = gzhttp.GzipHandler(outer)
	h = logger.NewHTTPRequests(log.Logger)(h)

	if s.tracing {
		h = otelhttp.NewHandler(h, "leadtrack")
	}

	return h
}

func (s *Server) htmlRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET "+s.settings.StaticURL, s.pages.FileServer())
	mux.HandleFunc("GET /{$}", s.index)

	// Login flow (public)
	mux.HandleFunc("GET /login", s.authn.LoginHandler)
	mux.HandleFunc("GET /github/callback", s.authn.CallbackHandler)
	mux.HandleFunc("/logout", s.authn.LogoutHandler)
	mux.HandleFunc("POST /auth/token", s.issueToken)

	// The category routes overlap the lead wildcards so each group gets its own mux
	requireAuth := s.authn.RequireAuth("/login")
	mux.Handle("/leads/", requireAuth(s.leadPages()))
	mux.Handle("/leads/categories/", requireAuth(s.categoryPages()))
	mux.Handle("/agents/", requireAuth(s.agentPages()))

	return mux
}

func (s *Server) apiRoutes() http.Handler {
	leads := http.NewServeMux()
	leads.HandleFunc("GET /api/leads/{$}", s.apiLeadList)
	leads.HandleFunc("POST /api/leads/{$}", s.apiLeadCreate)
	leads.HandleFunc("GET /api/leads/{id}/{$}", s.apiLeadGet)
	leads.HandleFunc("PUT /api/leads/{id}/{$}", s.apiLeadUpdate)
	leads.HandleFunc("DELETE /api/leads/{id}/{$}", s.apiLeadDelete)
	leads.HandleFunc("POST /api/leads/{id}/assign_agent/{$}", s.apiLeadAssignAgent)
	leads.HandleFunc("POST /api/leads/{id}/category/{$}", s.apiLeadCategory)

	categories := http.NewServeMux()
	categories.HandleFunc("GET /api/leads/categories/{$}", s.apiCategoryList)
	categories.HandleFunc("POST /api/leads/categories/{$}", s.apiCategoryCreate)
	categories.HandleFunc("GET /api/leads/categories/{id}/{$}", s.apiCategoryGet)
	categories.HandleFunc("PUT /api/leads/categories/{id}/{$}", s.apiCategoryUpdate)
	categories.HandleFunc("DELETE /api/leads/categories/{id}/{$}", s.apiCategoryDelete)

	agents := http.NewServeMux()
	agents.HandleFunc("GET /api/agents/{$}", s.apiAgentList)
	agents.HandleFunc("POST /api/agents/{$}", s.apiAgentCreate)
	agents.HandleFunc("GET /api/agents/{id}/{$}", s.apiAgentGet)
	agents.HandleFunc("PUT /api/agents/{id}/{$}", s.apiAgentUpdate)
	agents.HandleFunc("DELETE /api/agents/{id}/{$}", s.apiAgentDelete)

	mux := http.NewServeMux()
	mux.Handle("/api/leads/", leads)
	mux.Handle("/api/leads/categories/", categories)
	mux.Handle("/api/agents/", agents)

	return mux
}

// withCORS adds CORS support for browser clients of the JSON API.
func (s *Server) withCORS(h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   s.settings.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true, // Required for cookie-based authentication
	})
	return middleware.Handler(h)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
