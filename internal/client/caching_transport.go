package client

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// newCachingTransport wraps base with an HTTP cache honouring Cache-Control, ETag and Vary.
// GitHub API responses vary on Authorization, so entries are never shared between tokens.
func newCachingTransport(cacheDir string, base http.RoundTripper) *httpcache.Transport {
	var cache httpcache.Cache
	if cacheDir == "" {
		cache = httpcache.NewMemoryCache()
	} else {
		// Use disk-based cache for persistence across restarts
		cache = diskcache.New(cacheDir)
	}

	transport := httpcache.NewTransport(cache)
	transport.Transport = base
	return transport
}
