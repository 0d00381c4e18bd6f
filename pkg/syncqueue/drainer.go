package syncqueue

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var syncReplaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fieldgate_sync_replays_total",
	Help: "Total sync replay attempts by result",
}, []string{"result"}) // "success", "failure"

// Fetcher performs the replay requests. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Drainer replays queued actions when a sync trigger fires.
//
// Replay is sequential in enqueue order: mutating actions may have
// ordering dependencies unknown to this layer. Each replay carries
// the action's Idempotency-Key header; endpoints that ignore the
// header may see duplicate delivery if a drain is interrupted between
// origin apply and queue removal.
type Drainer struct {
	queue   Queue
	fetcher Fetcher
	logger  zerolog.Logger
}

// NewDrainer creates a drainer.
func NewDrainer(queue Queue, fetcher Fetcher) (*Drainer, error) {
	if queue == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	return &Drainer{
		queue:   queue,
		fetcher: fetcher,
		logger:  log.With().Str("component", "drainer").Logger(),
	}, nil
}

// Drain replays all queued actions. A successful replay removes the
// action; a failed one leaves it queued for the next trigger and the
// sweep moves on, so one action never blocks the rest of the batch.
// Drain is a best-effort sweep and safe to re-invoke; it returns an
// error only when the queue itself cannot be read.
func (d *Drainer) Drain(ctx context.Context) error {
	actions, err := d.queue.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending actions: %w", err)
	}

	d.logger.Info().Int("pending", len(actions)).Msg("Draining sync queue")

	for _, action := range actions {
		if err := d.replay(ctx, action); err != nil {
			syncReplaysTotal.WithLabelValues("failure").Inc()
			d.logger.Warn().
				Err(err).
				Str("action_id", action.ID).
				Str("url", action.URL).
				Msg("Sync replay failed, action stays queued")
			continue
		}

		if err := d.queue.Remove(ctx, action.ID); err != nil {
			d.logger.Error().Err(err).Str("action_id", action.ID).Msg("Failed to remove replayed action")
			continue
		}

		syncReplaysTotal.WithLabelValues("success").Inc()
		d.logger.Info().Str("action_id", action.ID).Str("url", action.URL).Msg("Synced offline action")
	}

	return nil
}

// replay re-issues the original request with its method, headers and
// body, plus the idempotency key.
func (d *Drainer) replay(ctx context.Context, action PendingAction) error {
	req, err := http.NewRequestWithContext(ctx, action.Method, action.URL, bytes.NewReader(action.Body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	for name, values := range action.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	req.Header.Set("Idempotency-Key", action.ID)

	resp, err := d.fetcher.Do(req)
	if err != nil {
		return fmt.Errorf("replay fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("replay rejected: status %d", resp.StatusCode)
	}

	return nil
}
