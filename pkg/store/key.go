package store

import (
	"net/http"
	"strings"
)

// Key identifies a cached response. Only the request method and
// absolute URL contribute to identity: only GET requests are cached,
// so no cache-relevant headers exist beyond the Accept routing signal,
// which influences strategy selection rather than identity.
type Key struct {
	// Method is the HTTP method (in practice always GET)
	Method string

	// URL is the absolute request URL
	URL string
}

// KeyForRequest derives the cache key for an HTTP request.
func KeyForRequest(req *http.Request) Key {
	return Key{
		Method: strings.ToUpper(req.Method),
		URL:    req.URL.String(),
	}
}

// String generates a deterministic cache key string.
// Format: method:url
//
// Example:
//
//	GET:https://example.com/static/css/main.css
func (k Key) String() string {
	return strings.ToUpper(k.Method) + ":" + k.URL
}
