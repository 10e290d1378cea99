package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/crm"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type errorPage struct {
	Status  int
	Code    string
	Message string
}

// classify maps a service error to a status code and a stable error code.
func classify(err error) (int, string) {
	var verr *crm.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, crm.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, crm.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, crm.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, crm.ErrConfiguration):
		return http.StatusInternalServerError, "configuration_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func logError(r *http.Request, err error, code string) {
	id, _ := access.IdentityFromContext(r.Context())
	log.Error().Err(err).
		Str("code", code).
		Str("path", r.URL.Path).
		Str("org_id", id.OrgID.String()).
		Str("user_id", id.UserID.String()).
		Msg("Request failed")
}

// htmlError renders the error page for err, or sends anonymous users to log in.
func (s *Server) htmlError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	var message string
	switch status {
	case http.StatusUnauthorized:
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	case http.StatusForbidden:
		message = "Only the organisor can do that."
	case http.StatusNotFound:
		message = "That page does not exist."
	case http.StatusUnprocessableEntity:
		message = err.Error()
	default:
		logError(r, err, code)
		message = "Something went wrong."
		if code == "configuration_error" {
			message = "Your organisation is missing its Converted category."
		}
	}

	s.render(w, r, status, "error", view{
		Title: http.StatusText(status),
		Data:  errorPage{Status: status, Code: code, Message: message},
	})
}

// apiError writes err as a JSON error response.
func apiError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	resp := errorResponse{Error: code}

	var verr *crm.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	if status == http.StatusInternalServerError {
		logError(r, err, code)
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Invalid JSON body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json"})
		return false
	}
	return true
}
