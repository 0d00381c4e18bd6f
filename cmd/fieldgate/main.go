// Command fieldgate runs the offline gateway as an intercepting proxy
// in front of an origin: every request from the client application
// passes through it and is resolved network-first or cache-first, with
// offline fallback and a durable replay queue for mutations that fail
// while offline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fieldgate/fieldgate/pkg/fallback"
	"github.com/fieldgate/fieldgate/pkg/logging"
	"github.com/fieldgate/fieldgate/pkg/push"
	"github.com/fieldgate/fieldgate/pkg/store"
	"github.com/fieldgate/fieldgate/pkg/syncqueue"
	"github.com/fieldgate/fieldgate/pkg/worker"
)

type config struct {
	ListenAddr    string        `env:"LISTEN_ADDR" envDefault:":8080"`
	OriginURL     string        `env:"ORIGIN_URL,required"`
	OriginTimeout time.Duration `env:"ORIGIN_TIMEOUT" envDefault:"30s"`

	RedisAddr string `env:"REDIS_ADDR"` // empty: in-memory cache store
	QueuePath string `env:"QUEUE_PATH" envDefault:"fieldgate-queue.db"`

	Generation  string   `env:"CACHE_GENERATION" envDefault:"fieldgate-v1.0.0"`
	Manifest    []string `env:"CACHE_MANIFEST" envSeparator:","`
	OfflinePath string   `env:"OFFLINE_PATH" envDefault:"/offline.html"`
	SyncTag     string   `env:"SYNC_TAG" envDefault:"sync-offline-data"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	origin := strings.TrimRight(cfg.OriginURL, "/")

	cacheStore, err := newStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create cache store")
	}
	defer cacheStore.Close()

	queue, err := syncqueue.OpenBolt(cfg.QueuePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open sync queue")
	}
	defer queue.Close()

	fetcher := &http.Client{Timeout: cfg.OriginTimeout}

	w, err := worker.New(worker.Config{
		Store:      cacheStore,
		Fetcher:    fetcher,
		Generation: cfg.Generation,
		Manifest:   absoluteURLs(origin, cfg.Manifest),
		OfflineURL: origin + cfg.OfflinePath,
		Queue:      queue,
		Display:    logDisplay{logger: logging.NewLogger("display")},
		SyncTag:    cfg.SyncTag,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create worker")
	}

	// Install must commit before activation; a failed install aborts
	// startup so process supervision retries the whole manifest.
	ctx := context.Background()
	if _, err := w.HandleEvent(ctx, worker.InstallEvent{}); err != nil {
		logger.Fatal().Err(err).Msg("Install failed")
	}
	if _, err := w.HandleEvent(ctx, worker.ActivateEvent{}); err != nil {
		logger.Fatal().Err(err).Msg("Activate failed")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler(w))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/-/sync", syncHandler(w, cfg.SyncTag))
	mux.HandleFunc("/-/message", messageHandler(w))
	mux.HandleFunc("/-/push", pushHandler(w))
	mux.HandleFunc("/", interceptHandler(w, queue, fetcher, origin, logger))

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Str("origin", origin).
		Str("generation", cfg.Generation).
		Msg("Starting fieldgate")

	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func newStore(cfg config) (store.Store, error) {
	if cfg.RedisAddr == "" {
		return store.NewMemory(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return store.NewRedis(client), nil
}

// absoluteURLs resolves manifest paths against the origin.
func absoluteURLs(origin string, paths []string) []string {
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
			urls = append(urls, p)
			continue
		}
		urls = append(urls, origin+p)
	}
	return urls
}

func healthHandler(w *worker.Worker) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !w.Lifecycle().Ready() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(rw, "not activated")
			return
		}
		rw.WriteHeader(http.StatusOK)
		fmt.Fprint(rw, "OK")
	}
}

// syncHandler exposes the sync trigger to the host, e.g. a
// connectivity watcher posting when the link comes back.
func syncHandler(w *worker.Worker, defaultTag string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		tag := r.URL.Query().Get("tag")
		if tag == "" {
			tag = defaultTag
		}
		w.Sync(r.Context(), tag)
		rw.WriteHeader(http.StatusAccepted)
	}
}

func messageHandler(w *worker.Worker) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var msg push.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, err := w.HandleEvent(r.Context(), worker.MessageEvent{Message: msg}); err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		rw.WriteHeader(http.StatusAccepted)
	}
}

func pushHandler(w *worker.Worker) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		data, err := io.ReadAll(r.Body)
		if err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		w.HandleEvent(r.Context(), worker.PushEvent{Data: data})
		rw.WriteHeader(http.StatusAccepted)
	}
}

// interceptHandler resolves GET requests through the caching engine.
// Mutating requests go straight to the origin; when the network fails
// they are captured into the sync queue for replay and the client
// receives the offline 503 payload.
func interceptHandler(w *worker.Worker, queue syncqueue.Queue, fetcher *http.Client, origin string, logger zerolog.Logger) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		target := origin + r.URL.RequestURI()

		if r.Method == http.MethodGet {
			req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusBadRequest)
				return
			}
			req.Header = r.Header.Clone()

			resp, err := w.HandleEvent(r.Context(), worker.FetchEvent{Request: req})
			if err != nil {
				http.Error(rw, fmt.Sprintf("fetch failed: %v", err), http.StatusBadGateway)
				return
			}
			writeResponse(rw, resp, logger)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}

		req, err := http.NewRequestWithContext(r.Context(), r.Method, target, strings.NewReader(string(body)))
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		req.Header = r.Header.Clone()

		resp, err := fetcher.Do(req)
		if err != nil {
			action, qErr := queue.Enqueue(r.Context(), syncqueue.PendingAction{
				URL:    target,
				Method: r.Method,
				Header: r.Header.Clone(),
				Body:   body,
			})
			if qErr != nil {
				logger.Error().Err(qErr).Str("url", target).Msg("Failed to queue offline action")
			} else {
				logger.Info().Str("action_id", action.ID).Str("url", target).Msg("Queued offline action")
			}
			writeOfflineError(rw)
			return
		}
		defer resp.Body.Close()
		writeResponse(rw, resp, logger)
	}
}

func writeResponse(rw http.ResponseWriter, resp *http.Response, logger zerolog.Logger) {
	defer resp.Body.Close()
	for key, values := range resp.Header {
		for _, value := range values {
			rw.Header().Add(key, value)
		}
	}
	rw.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(rw, resp.Body); err != nil {
		logger.Debug().Err(err).Msg("Failed to write response body")
	}
}

func writeOfflineError(rw http.ResponseWriter) {
	body, _ := json.Marshal(fallback.ErrorBody{
		Error:   "Offline",
		Message: fallback.OfflineMessage,
		Cached:  false,
	})
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusServiceUnavailable)
	rw.Write(body)
}

// logDisplay surfaces notifications into the structured log; a real
// deployment swaps in the host display layer.
type logDisplay struct {
	logger zerolog.Logger
}

func (d logDisplay) Show(_ context.Context, n push.Notification) error {
	d.logger.Info().Str("title", n.Title).Str("body", n.Body).Msg("Notification")
	return nil
}
