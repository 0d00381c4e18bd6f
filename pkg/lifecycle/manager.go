// Package lifecycle owns the cache-generation lifecycle: installing a
// new generation from the critical-asset manifest, activating it by
// purging every other generation, and pre-warming it on demand.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fieldgate/fieldgate/pkg/store"
)

var (
	installsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldgate_installs_total",
		Help: "Total install attempts by result",
	}, []string{"result"}) // "success", "failure"

	activationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldgate_activations_total",
		Help: "Total completed activations",
	})

	warmedURLsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldgate_warmed_urls_total",
		Help: "Total cache pre-warm fetches by result",
	}, []string{"result"})
)

var (
	// ErrInstallFailed indicates a manifest asset could not be fetched
	// and stored; the generation was rolled back and must not be
	// activated. The caller should retry the whole install.
	ErrInstallFailed = errors.New("install failed")

	// ErrNotInstalled indicates Activate was called before a
	// successful Install committed the generation.
	ErrNotInstalled = errors.New("generation not installed")
)

// Fetcher performs the network fetches used to populate the cache.
// *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the generation manager configuration.
type Config struct {
	// Generation is the identifier of the current cache generation,
	// e.g. "fieldgate-v1.0.0". Injected per deployment.
	Generation string

	// Manifest is the fixed list of critical-asset URLs fetched and
	// cached at install time.
	Manifest []string
}

// Manager owns the single current cache generation.
type Manager struct {
	store   store.Store
	fetcher Fetcher
	cfg     Config
	logger  zerolog.Logger

	mu        sync.Mutex
	installed bool
	ready     bool
}

// NewManager creates a generation manager.
func NewManager(s store.Store, fetcher Fetcher, cfg Config) (*Manager, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Generation == "" {
		return nil, fmt.Errorf("generation identifier is required")
	}

	return &Manager{
		store:   s,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  log.With().Str("component", "lifecycle").Str("generation", cfg.Generation).Logger(),
	}, nil
}

// Generation returns the current generation identifier.
func (m *Manager) Generation() string {
	return m.cfg.Generation
}

// Install fetches every manifest URL and stores it into the current
// generation. If any fetch fails the partially populated generation is
// deleted and ErrInstallFailed is returned: a half-populated cache is
// never left addressable, so the caller must retry the whole manifest.
func (m *Manager) Install(ctx context.Context) error {
	m.logger.Info().Int("manifest_size", len(m.cfg.Manifest)).Msg("Installing cache generation")

	for _, rawURL := range m.cfg.Manifest {
		if err := m.fetchAndStore(ctx, rawURL); err != nil {
			m.logger.Error().Err(err).Str("url", rawURL).Msg("Manifest fetch failed, rolling back")
			if delErr := m.store.DeleteGeneration(ctx, m.cfg.Generation); delErr != nil {
				m.logger.Error().Err(delErr).Msg("Rollback of partial generation failed")
			}
			installsTotal.WithLabelValues("failure").Inc()
			return fmt.Errorf("%w: %s: %v", ErrInstallFailed, rawURL, err)
		}
	}

	m.mu.Lock()
	m.installed = true
	m.mu.Unlock()

	installsTotal.WithLabelValues("success").Inc()
	m.logger.Info().Msg("Install committed")
	return nil
}

// Activate deletes every generation other than the current one, then
// marks the manager ready to serve. It refuses to run before Install
// has committed: a generation with an incomplete install must not be
// activated.
func (m *Manager) Activate(ctx context.Context) error {
	m.mu.Lock()
	installed := m.installed
	m.mu.Unlock()
	if !installed {
		return ErrNotInstalled
	}

	names, err := m.store.Generations(ctx)
	if err != nil {
		return fmt.Errorf("enumerate generations: %w", err)
	}

	for _, name := range names {
		if name == m.cfg.Generation {
			continue
		}
		m.logger.Info().Str("old_generation", name).Msg("Deleting superseded cache generation")
		if err := m.store.DeleteGeneration(ctx, name); err != nil {
			return fmt.Errorf("delete generation %q: %w", name, err)
		}
	}

	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()

	activationsTotal.Inc()
	m.logger.Info().Msg("Generation activated")
	return nil
}

// Ready reports whether Activate has completed.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Warm fetches and stores the given URLs into the current generation
// outside the normal interception path. Unlike Install it is
// best-effort per URL: a failed fetch is logged and skipped, since a
// partially warmed cache is still valid.
func (m *Manager) Warm(ctx context.Context, urls []string) {
	for _, rawURL := range urls {
		if err := m.fetchAndStore(ctx, rawURL); err != nil {
			warmedURLsTotal.WithLabelValues("failure").Inc()
			m.logger.Warn().Err(err).Str("url", rawURL).Msg("Cache pre-warm fetch failed")
			continue
		}
		warmedURLsTotal.WithLabelValues("success").Inc()
		m.logger.Debug().Str("url", rawURL).Msg("Pre-warmed URL")
	}
}

func (m *Manager) fetchAndStore(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := m.fetcher.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}

	entry, err := store.ResponseToEntry(resp)
	if err != nil {
		return fmt.Errorf("snapshot response: %w", err)
	}

	if err := m.store.Put(ctx, m.cfg.Generation, store.KeyForRequest(req), entry); err != nil {
		return fmt.Errorf("store entry: %w", err)
	}

	return nil
}
