// Package config holds the process-wide settings built at startup and passed to the web server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wolfeidau/leadtrack/internal/notify"
)

// MinSecretKeyLength is the shortest secret key accepted for HMAC-SHA256 token signing.
const MinSecretKeyLength = 32

var developmentHosts = []string{"localhost", "127.0.0.1", "::1"}

// Settings is the explicit configuration of a running server.
type Settings struct {
	Debug        bool
	AllowedHosts []string
	SecretKey    string
	BaseURL      string
	StaticRoot   string
	StaticURL    string
	SessionTTL   time.Duration
	CORSOrigins  []string
	Mail         notify.Config
}

// Validate checks the settings are complete and consistent.
func (s Settings) Validate() error {
	if len(s.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("secret key must be at least %d bytes (256 bits) for HMAC-SHA256", MinSecretKeyLength)
	}

	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base URL %q must be an absolute URL", s.BaseURL)
	}

	if !s.Debug && len(s.AllowedHosts) == 0 {
		return errors.New("allowed hosts are required when debug is disabled")
	}

	if s.StaticRoot == "" {
		return errors.New("static root is required")
	}

	if !strings.HasPrefix(s.StaticURL, "/") || !strings.HasSuffix(s.StaticURL, "/") {
		return fmt.Errorf("static URL %q must start and end with a slash", s.StaticURL)
	}

	if s.SessionTTL <= 0 {
		return errors.New("session TTL must be greater than 0")
	}

	if err := s.Mail.Validate(); err != nil {
		return fmt.Errorf("invalid mail settings: %w", err)
	}

	return nil
}

// Hosts returns the hosts the server answers for. In debug mode an empty list
// allows the local development hosts.
func (s Settings) Hosts() []string {
	if len(s.AllowedHosts) == 0 && s.Debug {
		return developmentHosts
	}
	return s.AllowedHosts
}

// SecureCookies reports whether cookies should carry the Secure attribute.
func (s Settings) SecureCookies() bool {
	return strings.HasPrefix(s.BaseURL, "https://")
}
