// Package worker is the composition root of the offline gateway: one
// entry point routes each tagged event to the component that handles
// it. No ambient global state exists beyond the injected current
// generation identifier.
package worker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fieldgate/fieldgate/pkg/fallback"
	"github.com/fieldgate/fieldgate/pkg/lifecycle"
	"github.com/fieldgate/fieldgate/pkg/push"
	"github.com/fieldgate/fieldgate/pkg/store"
	"github.com/fieldgate/fieldgate/pkg/strategy"
	"github.com/fieldgate/fieldgate/pkg/syncqueue"
)

// DefaultSyncTag is the sync-trigger tag that drains the action queue.
const DefaultSyncTag = "sync-offline-data"

// Fetcher performs all network fetches. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the worker configuration.
type Config struct {
	// Store is the versioned response cache. Required.
	Store store.Store

	// Fetcher performs network fetches. Required.
	Fetcher Fetcher

	// Generation is the current cache generation identifier. Required.
	Generation string

	// Manifest is the critical-asset URL list cached at install.
	Manifest []string

	// OfflineURL is the pre-cached offline page for failing
	// navigational requests.
	OfflineURL string

	// Rules are the classifier prefix rules. Nil means the defaults.
	Rules []strategy.PrefixRule

	// Queue is the durable pending-action queue. Optional; without it
	// sync events are ignored.
	Queue syncqueue.Queue

	// Display is the host notification surface. Optional.
	Display push.Display

	// SyncTag is the tag that triggers a queue drain. Defaults to
	// DefaultSyncTag.
	SyncTag string
}

// Worker routes events to the caching engine's components.
type Worker struct {
	cfg        Config
	lifecycle  *lifecycle.Manager
	resolver   *strategy.Resolver
	drainer    *syncqueue.Drainer
	dispatcher *push.Dispatcher
	messenger  *push.Messenger
	logger     zerolog.Logger
}

// New creates a worker from the given configuration.
func New(cfg Config) (*Worker, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Generation == "" {
		return nil, fmt.Errorf("generation identifier is required")
	}
	if cfg.SyncTag == "" {
		cfg.SyncTag = DefaultSyncTag
	}

	manager, err := lifecycle.NewManager(cfg.Store, cfg.Fetcher, lifecycle.Config{
		Generation: cfg.Generation,
		Manifest:   cfg.Manifest,
	})
	if err != nil {
		return nil, fmt.Errorf("create lifecycle manager: %w", err)
	}

	provider := fallback.NewProvider(cfg.Store, fallback.Config{
		Generation: cfg.Generation,
		OfflineURL: cfg.OfflineURL,
	})

	resolver, err := strategy.NewResolver(cfg.Store, cfg.Fetcher, provider, strategy.Config{
		Generation: cfg.Generation,
		Rules:      cfg.Rules,
	})
	if err != nil {
		return nil, fmt.Errorf("create resolver: %w", err)
	}

	var drainer *syncqueue.Drainer
	if cfg.Queue != nil {
		drainer, err = syncqueue.NewDrainer(cfg.Queue, cfg.Fetcher)
		if err != nil {
			return nil, fmt.Errorf("create drainer: %w", err)
		}
	}

	dispatcher := push.NewDispatcher(cfg.Display)

	return &Worker{
		cfg:        cfg,
		lifecycle:  manager,
		resolver:   resolver,
		drainer:    drainer,
		dispatcher: dispatcher,
		messenger:  push.NewMessenger(manager),
		logger:     log.With().Str("component", "worker").Str("generation", cfg.Generation).Logger(),
	}, nil
}

// Lifecycle exposes the generation manager, e.g. for readiness checks.
func (w *Worker) Lifecycle() *lifecycle.Manager {
	return w.lifecycle
}

// HandleEvent routes one event. Only FetchEvent produces a response;
// every other event returns a nil response. Only InstallEvent may
// fail its lifecycle event (so the platform retries install);
// ActivateEvent fails only when fired before install committed.
func (w *Worker) HandleEvent(ctx context.Context, ev Event) (*http.Response, error) {
	switch ev := ev.(type) {
	case InstallEvent:
		return nil, w.lifecycle.Install(ctx)
	case ActivateEvent:
		return nil, w.lifecycle.Activate(ctx)
	case FetchEvent:
		return w.Fetch(ev.Request)
	case SyncEvent:
		w.Sync(ctx, ev.Tag)
		return nil, nil
	case PushEvent:
		w.dispatcher.HandlePush(ctx, ev.Data)
		return nil, nil
	case MessageEvent:
		w.messenger.HandleMessage(ctx, ev.Message)
		return nil, nil
	case NotificationClickEvent:
		w.NotificationClick(ctx, ev.Action)
		return nil, nil
	default:
		w.logger.Debug().Type("event", ev).Msg("Ignoring unknown event")
		return nil, nil
	}
}

// Fetch resolves one intercepted request into exactly one response.
func (w *Worker) Fetch(req *http.Request) (*http.Response, error) {
	return w.resolver.Resolve(req)
}

// Sync drains the pending-action queue when the tag matches the
// configured sync tag; any other tag is ignored.
func (w *Worker) Sync(ctx context.Context, tag string) {
	if tag != w.cfg.SyncTag {
		w.logger.Debug().Str("tag", tag).Msg("Ignoring unknown sync tag")
		return
	}
	if w.drainer == nil {
		w.logger.Debug().Msg("No queue configured, ignoring sync")
		return
	}
	if err := w.drainer.Drain(ctx); err != nil {
		w.logger.Error().Err(err).Msg("Queue drain failed")
	}
}

// NotificationClick records the chosen notification action and
// returns the host signal it maps to.
func (w *Worker) NotificationClick(ctx context.Context, action string) push.ClickResult {
	return w.dispatcher.HandleClick(ctx, action)
}
