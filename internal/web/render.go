package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/assets"
	"github.com/wolfeidau/leadtrack/internal/login"
)

//go:embed templates
var templatesFS embed.FS

// NewPipeline creates the asset pipeline with the embedded page templates.
func NewPipeline(cfg assets.Config) (*assets.Pipeline, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}

	return assets.NewWithTemplates(cfg, sub, template.FuncMap{
		"date": formatDate,
		"dict": dict,
	})
}

// view is the data every page template receives.
type view struct {
	Title    string
	Identity access.Identity
	Session  *login.SessionData
	Form     *form
	Data     any
}

// SignedIn reports whether the page is rendered for a logged-in user.
func (v view) SignedIn() bool {
	return v.Identity.UserID != uuid.Nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	v.Identity, _ = access.IdentityFromContext(r.Context())
	v.Session, _ = login.SessionFromContext(r.Context())

	var buf bytes.Buffer
	if err := s.pages.Render(&buf, page, v); err != nil {
		log.Error().Err(err).Str("page", page).Msg("Failed to render template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Debug().Err(err).Str("page", page).Msg("Failed to write response")
	}
}

func formatDate(t any) string {
	switch v := t.(type) {
	case time.Time:
		return v.Format("2 Jan 2006 15:04")
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format("2 Jan 2006 15:04")
	default:
		return ""
	}
}

// dict builds a map from alternating keys and values so partials can take named arguments.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict expects key value pairs, got %d arguments", len(pairs))
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
