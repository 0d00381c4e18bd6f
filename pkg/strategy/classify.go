// Package strategy decides, per intercepted request, whether the
// network or the cache is consulted first, and resolves the request
// accordingly.
package strategy

import (
	"net/http"
	"strings"
)

// Strategy is the resolution order for an intercepted request.
type Strategy string

const (
	// NetworkFirst tries the network, falling back to the cache.
	// Used for API data and navigational HTML: as fresh as possible
	// online, last-known value offline.
	NetworkFirst Strategy = "network_first"

	// CacheFirst serves from the cache when possible, avoiding the
	// network round-trip. Used for static assets that rarely change.
	CacheFirst Strategy = "cache_first"

	// NeverCache bypasses both handlers entirely. All non-GET
	// requests are NeverCache: they go straight to the network with
	// no fallback.
	NeverCache Strategy = "never_cache"
)

// PrefixRule maps a URL path prefix to a strategy.
type PrefixRule struct {
	Prefix   string
	Strategy Strategy
}

// Classification is the per-request routing decision.
type Classification struct {
	Strategy Strategy

	// Cacheable reports whether a successful response may be written
	// through to the cache. Only GET requests are cacheable.
	Cacheable bool

	// Rule names the rule that matched, for logging.
	Rule string
}

// Classifier maps a request's method and URL to a strategy. It is a
// pure mapping with no I/O; rules are static configuration.
type Classifier struct {
	rules []PrefixRule
}

// DefaultRules returns the standard path-prefix rules: API paths are
// network-first, static assets cache-first. Evaluated in order, first
// match wins.
func DefaultRules() []PrefixRule {
	return []PrefixRule{
		{Prefix: "/api/", Strategy: NetworkFirst},
		{Prefix: "/static/", Strategy: CacheFirst},
	}
}

// NewClassifier creates a classifier with the given prefix rules.
// Nil rules means DefaultRules.
func NewClassifier(rules []PrefixRule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify routes a request. Priority: non-GET → NeverCache; prefix
// rules in order; navigational HTML (Accept: text/html) →
// NetworkFirst; everything else → CacheFirst.
func (c *Classifier) Classify(req *http.Request) Classification {
	if req.Method != http.MethodGet {
		return Classification{Strategy: NeverCache, Rule: "non_get"}
	}

	path := req.URL.Path
	for _, rule := range c.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return Classification{Strategy: rule.Strategy, Cacheable: true, Rule: rule.Prefix}
		}
	}

	if isNavigational(req) {
		return Classification{Strategy: NetworkFirst, Cacheable: true, Rule: "html"}
	}

	return Classification{Strategy: CacheFirst, Cacheable: true, Rule: "default"}
}

// isNavigational reports whether the request carries an HTML accept
// signal, i.e. a user navigating to a page.
func isNavigational(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}
