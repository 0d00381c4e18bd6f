// Package fallback supplies the last-resort response served when both
// the network and the cache fail.
package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fieldgate/fieldgate/pkg/store"
)

var fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fieldgate_fallbacks_total",
	Help: "Total offline fallback responses by kind",
}, []string{"kind"}) // "offline_page", "error_json"

// OfflineMessage is the bilingual body carried by the structured 503
// response, so field operators see it in Hindi or English.
const OfflineMessage = "आप ऑफ़लाइन हैं। कृपया इंटरनेट कनेक्शन जांचें। You are offline. Please check your internet connection."

// ErrorBody is the machine-readable 503 payload. It lets the calling
// UI layer distinguish "offline, no data" from other error kinds.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Cached  bool   `json:"cached"`
}

// Config holds the fallback provider configuration.
type Config struct {
	// Generation is the cache generation the offline page lives in.
	Generation string

	// OfflineURL is the pre-cached offline page served to failing
	// navigational requests, e.g. "https://origin/offline.html".
	OfflineURL string
}

// Provider resolves requests that neither network nor cache could.
type Provider struct {
	store  store.Store
	cfg    Config
	logger zerolog.Logger
}

// NewProvider creates an offline fallback provider.
func NewProvider(s store.Store, cfg Config) *Provider {
	return &Provider{
		store:  s,
		cfg:    cfg,
		logger: log.With().Str("component", "fallback").Logger(),
	}
}

// Respond returns the terminal response for a failed request: the
// cached offline page for navigational HTML requests when present,
// otherwise the structured bilingual 503. It never fails.
func (p *Provider) Respond(ctx context.Context, req *http.Request) *http.Response {
	if strings.Contains(req.Header.Get("Accept"), "text/html") && p.cfg.OfflineURL != "" {
		key := store.Key{Method: http.MethodGet, URL: p.cfg.OfflineURL}
		entry, err := p.store.Match(ctx, p.cfg.Generation, key)
		if err == nil {
			fallbacksTotal.WithLabelValues("offline_page").Inc()
			p.logger.Debug().Str("url", req.URL.String()).Msg("Serving offline page")
			return store.EntryToResponse(entry)
		}
	}

	fallbacksTotal.WithLabelValues("error_json").Inc()
	p.logger.Debug().Str("url", req.URL.String()).Msg("Serving offline error response")
	return offlineErrorResponse()
}

// offlineErrorResponse builds the 503 JSON response.
func offlineErrorResponse() *http.Response {
	body, _ := json.Marshal(ErrorBody{
		Error:   "Offline",
		Message: OfflineMessage,
		Cached:  false,
	})

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode:    http.StatusServiceUnavailable,
		Status:        "503 Service Unavailable",
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}
