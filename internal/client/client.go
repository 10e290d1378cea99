package client

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config holds outbound HTTP client configuration.
type Config struct {
	Timeout  time.Duration
	CacheDir string // empty for an in-memory cache
	Tracing  bool
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}

// New creates the HTTP client used for calls to the GitHub API during login.
func New(config Config) *http.Client {
	var base http.RoundTripper = http.DefaultTransport
	if config.Tracing {
		base = otelhttp.NewTransport(base)
	}

	return &http.Client{
		Timeout:   config.Timeout,
		Transport: newCachingTransport(config.CacheDir, base),
	}
}
