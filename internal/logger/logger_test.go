package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPRequests(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	var sawLogger bool
	h := NewHTTPRequests(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = hlog.FromRequest(r).GetLevel() != zerolog.Disabled
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/", nil))

	require.True(t, sawLogger)
	require.Equal(t, http.StatusTeapot, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "/leads/", line["path"])
	require.Equal(t, float64(http.StatusTeapot), line["status"])
	require.Equal(t, "info", line["level"])
	require.NotEmpty(t, line["request_id"])
}

func TestSetup(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, Setup(false).GetLevel())
	require.Equal(t, zerolog.DebugLevel, Setup(true).GetLevel())
}
