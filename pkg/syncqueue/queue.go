// Package syncqueue holds mutating requests captured while offline in
// a durable FIFO and replays them when a sync trigger fires.
package syncqueue

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNotFound indicates the pending action id is not in the queue.
var ErrNotFound = errors.New("pending action not found")

// PendingAction is one mutating request captured while offline. It
// persists across process restarts until replayed or explicitly
// purged; there is no automatic expiry.
type PendingAction struct {
	// ID is a client-generated UUID. It doubles as the
	// Idempotency-Key sent on replay so endpoints that honor the
	// header cannot double-apply a re-drained action.
	ID string `json:"id"`

	// URL is the target of the original request.
	URL string `json:"url"`

	// Method is the original HTTP method.
	Method string `json:"method"`

	// Header holds the original request headers.
	Header http.Header `json:"header,omitempty"`

	// Body is the original request body.
	Body []byte `json:"body,omitempty"`

	// EnqueuedAt orders actions for replay.
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue is a durable FIFO of pending actions. Entries survive process
// restarts; removal happens only after a confirmed successful replay,
// never speculatively.
type Queue interface {
	// Enqueue appends the action, assigning its ID and EnqueuedAt,
	// and returns the stored action.
	Enqueue(ctx context.Context, action PendingAction) (PendingAction, error)

	// ListPending returns all queued actions in enqueue order.
	ListPending(ctx context.Context) ([]PendingAction, error)

	// Remove deletes the action with the given id. Returns
	// ErrNotFound if absent.
	Remove(ctx context.Context, id string) error

	// Purge deletes every queued action. This is the explicit escape
	// hatch for the no-expiry design.
	Purge(ctx context.Context) error

	// Close releases storage resources.
	Close() error
}
