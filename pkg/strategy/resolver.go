package strategy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fieldgate/fieldgate/pkg/store"
)

// Fetcher performs the live network fetch. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fallback supplies the last-resort response when both network and
// cache fail. It never fails itself.
type Fallback interface {
	Respond(ctx context.Context, req *http.Request) *http.Response
}

// Config holds the resolver configuration.
type Config struct {
	// Generation is the cache generation resolved against.
	Generation string

	// Rules are the classifier prefix rules. Nil means DefaultRules.
	Rules []PrefixRule
}

// Resolver turns one intercepted request into exactly one response,
// dispatching on the classified strategy.
type Resolver struct {
	store      store.Store
	fetcher    Fetcher
	fallback   Fallback
	classifier *Classifier
	generation string
	logger     zerolog.Logger
}

// NewResolver creates a resolver.
func NewResolver(s store.Store, fetcher Fetcher, fallback Fallback, cfg Config) (*Resolver, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback provider is required")
	}
	if cfg.Generation == "" {
		return nil, fmt.Errorf("generation identifier is required")
	}

	return &Resolver{
		store:      s,
		fetcher:    fetcher,
		fallback:   fallback,
		classifier: NewClassifier(cfg.Rules),
		generation: cfg.Generation,
		logger:     log.With().Str("component", "resolver").Logger(),
	}, nil
}

// Resolve handles one intercepted request and always returns exactly
// one response, except for NeverCache requests whose network errors
// propagate to the caller unwrapped.
func (r *Resolver) Resolve(req *http.Request) (*http.Response, error) {
	cls := r.classifier.Classify(req)

	startTime := time.Now()
	defer func() {
		RequestDuration.WithLabelValues(string(cls.Strategy)).Observe(time.Since(startTime).Seconds())
	}()

	r.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("strategy", string(cls.Strategy)).
		Str("rule", cls.Rule).
		Msg("Classified request")

	switch cls.Strategy {
	case NeverCache:
		resp, err := r.fetcher.Do(req)
		if err != nil {
			return nil, err
		}
		RequestsTotal.WithLabelValues(string(NeverCache), "network").Inc()
		return resp, nil
	case NetworkFirst:
		return r.resolveNetworkFirst(req), nil
	default:
		return r.resolveCacheFirst(req), nil
	}
}

// resolveNetworkFirst tries the network, falling back to the cache,
// then to the offline fallback.
func (r *Resolver) resolveNetworkFirst(req *http.Request) *http.Response {
	key := store.KeyForRequest(req)

	resp, err := r.fetcher.Do(req)
	if err == nil {
		if resp.StatusCode == http.StatusOK {
			r.writeThrough(req.Context(), key, resp)
		}
		RequestsTotal.WithLabelValues(string(NetworkFirst), "network").Inc()
		return resp
	}

	// Network unavailable: expected on intermittent links, resolved
	// locally and never surfaced to the caller.
	r.logger.Debug().Err(err).Str("url", req.URL.String()).Msg("Network failed, trying cache")

	entry, matchErr := r.store.Match(req.Context(), r.generation, key)
	if matchErr == nil {
		RequestsTotal.WithLabelValues(string(NetworkFirst), "cache").Inc()
		return store.EntryToResponse(entry)
	}
	if !errors.Is(matchErr, store.ErrCacheMiss) {
		r.logger.Warn().Err(matchErr).Str("url", req.URL.String()).Msg("Cache match error")
	}

	RequestsTotal.WithLabelValues(string(NetworkFirst), "fallback").Inc()
	return r.fallback.Respond(req.Context(), req)
}

// resolveCacheFirst serves from the cache when possible; a hit makes
// no network call at all.
func (r *Resolver) resolveCacheFirst(req *http.Request) *http.Response {
	key := store.KeyForRequest(req)

	entry, matchErr := r.store.Match(req.Context(), r.generation, key)
	if matchErr == nil {
		RequestsTotal.WithLabelValues(string(CacheFirst), "cache").Inc()
		return store.EntryToResponse(entry)
	}
	if !errors.Is(matchErr, store.ErrCacheMiss) {
		r.logger.Warn().Err(matchErr).Str("url", req.URL.String()).Msg("Cache match error")
	}

	resp, err := r.fetcher.Do(req)
	if err != nil {
		RequestsTotal.WithLabelValues(string(CacheFirst), "fallback").Inc()
		return r.fallback.Respond(req.Context(), req)
	}

	if resp.StatusCode == http.StatusOK {
		r.writeThrough(req.Context(), key, resp)
	}
	RequestsTotal.WithLabelValues(string(CacheFirst), "network").Inc()
	return resp
}

// writeThrough stores a copy of a live response into the current
// generation. Failures are logged only: the cache write and the
// response delivery are independent. The write uses a detached
// context so an aborted caller does not lose the entry.
func (r *Resolver) writeThrough(ctx context.Context, key store.Key, resp *http.Response) {
	entry, err := store.ResponseToEntry(resp)
	if err != nil {
		CacheWriteFailures.Inc()
		r.logger.Warn().Err(err).Str("url", key.URL).Msg("Failed to snapshot response")
		return
	}

	if err := r.store.Put(context.WithoutCancel(ctx), r.generation, key, entry); err != nil {
		CacheWriteFailures.Inc()
		r.logger.Warn().Err(err).Str("url", key.URL).Msg("Failed to cache response")
		return
	}

	r.logger.Debug().Str("url", key.URL).Str("generation", r.generation).Msg("Cached response")
}
