package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/access"
)

// SessionProvider resolves the identity behind a request's session cookie.
type SessionProvider interface {
	// IdentityFromSession returns the identity of the logged-in user, or an error if
	// there is no valid session.
	IdentityFromSession(r *http.Request) (access.Identity, error)

	// ResolveIdentity loads the stored identity of a user. It fails once the user, or
	// the agent record of an agent user, has been removed.
	ResolveIdentity(ctx context.Context, userID uuid.UUID) (access.Identity, error)
}

// DualAuthMiddleware authenticates API requests with either a bearer JWT or a session cookie.
// A bearer token, when present, must be valid; the session is not consulted as a fallback.
// The token subject is resolved against the stores on every request and the stored identity
// replaces the claims, so removed users and agents lose access before their token expires.
// Unauthenticated requests get a JSON 401.
func DualAuthMiddleware(verifier *JWTVerifier, sessions SessionProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				claimed, err := verifier.VerifyRequest(r)
				if err != nil {
					log.Debug().Err(err).Msg("Dual auth: JWT verification failed")
					writeUnauthorized(w)
					return
				}

				id, err := sessions.ResolveIdentity(r.Context(), claimed.UserID)
				if err != nil {
					log.Warn().Err(err).Str("user_id", claimed.UserID.String()).Msg("Dual auth: token subject no longer resolves")
					writeUnauthorized(w)
					return
				}
				if id.OrgID != claimed.OrgID {
					log.Warn().Str("user_id", claimed.UserID.String()).Msg("Dual auth: token organisation does not match user")
					writeUnauthorized(w)
					return
				}

				log.Debug().
					Str("user_id", id.UserID.String()).
					Str("role", id.Role.String()).
					Msg("Dual auth: JWT authenticated")

				next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), id)))
				return
			}

			id, err := sessions.IdentityFromSession(r)
			if err != nil {
				log.Debug().Err(err).Msg("Dual auth: session authentication failed")
				writeUnauthorized(w)
				return
			}

			log.Debug().
				Str("user_id", id.UserID.String()).
				Msg("Dual auth: session authenticated")

			next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), id)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}
