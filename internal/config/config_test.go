package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/leadtrack/internal/notify"
)

func validSettings() Settings {
	return Settings{
		AllowedHosts: []string{"leads.example.com"},
		SecretKey:    "0123456789abcdef0123456789abcdef",
		BaseURL:      "https://leads.example.com",
		StaticRoot:   "public",
		StaticURL:    "/static/",
		SessionTTL:   24 * time.Hour,
		Mail: notify.Config{
			Transport: notify.TransportConsole,
			From:      "leads@example.com",
			To:        []string{"sales@example.com"},
		},
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"valid", func(s *Settings) {}, ""},
		{"short secret", func(s *Settings) { s.SecretKey = "short" }, "at least 32 bytes"},
		{"relative base url", func(s *Settings) { s.BaseURL = "/leads" }, "absolute URL"},
		{"no hosts", func(s *Settings) { s.AllowedHosts = nil }, "allowed hosts are required"},
		{"no hosts in debug", func(s *Settings) { s.AllowedHosts = nil; s.Debug = true }, ""},
		{"no static root", func(s *Settings) { s.StaticRoot = "" }, "static root is required"},
		{"static url without slash", func(s *Settings) { s.StaticURL = "/static" }, "start and end with a slash"},
		{"zero ttl", func(s *Settings) { s.SessionTTL = 0 }, "session TTL"},
		{"bad mail", func(s *Settings) { s.Mail.Transport = "fax" }, "invalid mail settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSettings_Hosts(t *testing.T) {
	s := validSettings()
	require.Equal(t, []string{"leads.example.com"}, s.Hosts())

	s.AllowedHosts = nil
	require.Empty(t, s.Hosts())

	s.Debug = true
	require.Equal(t, []string{"localhost", "127.0.0.1", "::1"}, s.Hosts())
}

func TestSettings_SecureCookies(t *testing.T) {
	s := validSettings()
	require.True(t, s.SecureCookies())

	s.BaseURL = "http://localhost:8080"
	require.False(t, s.SecureCookies())
}
