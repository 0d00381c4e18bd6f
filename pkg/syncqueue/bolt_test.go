package syncqueue

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
)

func openTestQueue(t *testing.T) (*Bolt, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "queue.db")
	q, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { q.Close() })

	return q, path
}

func TestEnqueueAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	q, _ := openTestQueue(t)

	action, err := q.Enqueue(ctx, PendingAction{
		URL:    "https://origin.example/api/orders",
		Method: http.MethodPost,
		Body:   []byte(`{"crop":"wheat"}`),
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if action.ID == "" {
		t.Error("Enqueue did not assign an id")
	}
	if action.EnqueuedAt.IsZero() {
		t.Error("Enqueue did not assign a timestamp")
	}
}

func TestEnqueueValidation(t *testing.T) {
	ctx := context.Background()
	q, _ := openTestQueue(t)

	if _, err := q.Enqueue(ctx, PendingAction{Method: http.MethodPost}); err == nil {
		t.Error("Enqueue without URL should fail")
	}
	if _, err := q.Enqueue(ctx, PendingAction{URL: "https://x"}); err == nil {
		t.Error("Enqueue without method should fail")
	}
}

func TestListPendingFIFO(t *testing.T) {
	ctx := context.Background()
	q, _ := openTestQueue(t)

	urls := []string{
		"https://origin.example/api/orders/1",
		"https://origin.example/api/orders/2",
		"https://origin.example/api/orders/3",
	}
	for _, u := range urls {
		if _, err := q.Enqueue(ctx, PendingAction{URL: u, Method: http.MethodPost}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	actions, err := q.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("len = %d, want 3", len(actions))
	}
	for i, action := range actions {
		if action.URL != urls[i] {
			t.Errorf("action %d = %s, want %s (FIFO order)", i, action.URL, urls[i])
		}
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	q, _ := openTestQueue(t)

	a1, _ := q.Enqueue(ctx, PendingAction{URL: "https://x/1", Method: http.MethodPost})
	a2, _ := q.Enqueue(ctx, PendingAction{URL: "https://x/2", Method: http.MethodPost})

	if err := q.Remove(ctx, a1.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	actions, _ := q.ListPending(ctx)
	if len(actions) != 1 || actions[0].ID != a2.ID {
		t.Errorf("remaining = %v, want only second action", actions)
	}

	if err := q.Remove(ctx, a1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove twice = %v, want ErrNotFound", err)
	}
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	q, _ := openTestQueue(t)

	for i := 0; i < 3; i++ {
		if _, err := q.Enqueue(ctx, PendingAction{URL: "https://x", Method: http.MethodPost}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	if err := q.Purge(ctx); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	actions, _ := q.ListPending(ctx)
	if len(actions) != 0 {
		t.Errorf("pending after purge = %d, want 0", len(actions))
	}
}

func TestDurabilityAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")

	q, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	queued, err := q.Enqueue(ctx, PendingAction{
		URL:    "https://origin.example/api/orders",
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(`{"crop":"rice"}`),
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Simulated process restart
	q, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer q.Close()

	actions, err := q.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("pending after reopen = %d, want 1", len(actions))
	}
	got := actions[0]
	if got.ID != queued.ID || got.URL != queued.URL || string(got.Body) != string(queued.Body) {
		t.Errorf("reloaded action = %+v, want %+v", got, queued)
	}
}
