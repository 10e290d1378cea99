package web

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/telemetry"
)

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// issueToken exchanges a browser session for a short-lived API bearer token.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	id, err := s.authn.IdentityFromSession(r)
	if err != nil {
		log.Debug().Err(err).Msg("Token requested without a valid session")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	token, expiresAt, err := s.issuer.Issue(id)
	if err != nil {
		apiError(w, r, err)
		return
	}

	telemetry.GetMetrics().TokensIssuedTotal.Add(r.Context(), 1)

	log.Info().
		Str("user_id", id.UserID.String()).
		Str("org_id", id.OrgID.String()).
		Time("expires_at", expiresAt).
		Msg("Issued API token")

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expiresAt).Seconds()),
		ExpiresAt:   expiresAt,
	})
}

// index is the public landing page. Logged-in users see their navigation.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if id, err := s.authn.IdentityFromSession(r); err == nil {
		r = r.WithContext(access.WithIdentity(r.Context(), id))
	}

	s.render(w, r, http.StatusOK, "index", view{
		Title: "Lead tracker",
		Data:  r.URL.Query().Get("error_code"),
	})
}
