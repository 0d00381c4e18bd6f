package integration

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fieldgate/fieldgate/internal/testutil"
	"github.com/fieldgate/fieldgate/pkg/store"
	"github.com/fieldgate/fieldgate/pkg/worker"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})
	t.Cleanup(func() { client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		t.Fatalf("Failed to ping Redis: %v", err)
	}

	return client
}

// TestGatewayLifecycleWithRedis runs the install/activate/fetch flow
// against a real Redis backend.
func TestGatewayLifecycleWithRedis(t *testing.T) {
	ctx := context.Background()
	redisClient := setupRedis(t)

	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/a.html", testutil.MockResponse{StatusCode: 200, Body: "<html>a</html>"})
	origin.SetResponse("/b.css", testutil.MockResponse{StatusCode: 200, Body: "body{}"})

	s := store.NewRedis(redisClient)

	// Entries left behind by a prior deployment
	oldKey := store.Key{Method: http.MethodGet, URL: origin.URL() + "/old"}
	if err := s.Put(ctx, "fieldgate-v0.9.0", oldKey, &store.Entry{StatusCode: 200, Body: []byte("stale")}); err != nil {
		t.Fatalf("seed old generation: %v", err)
	}

	w, err := worker.New(worker.Config{
		Store:      s,
		Fetcher:    origin.Client(),
		Generation: "fieldgate-v1.0.0",
		Manifest:   []string{origin.URL() + "/a.html", origin.URL() + "/b.css"},
	})
	if err != nil {
		t.Fatalf("worker.New: %v", err)
	}

	if _, err := w.HandleEvent(ctx, worker.InstallEvent{}); err != nil {
		t.Fatalf("install: %v", err)
	}
	if _, err := w.HandleEvent(ctx, worker.ActivateEvent{}); err != nil {
		t.Fatalf("activate: %v", err)
	}

	// The old generation is gone from Redis
	names, err := s.Generations(ctx)
	if err != nil {
		t.Fatalf("Generations: %v", err)
	}
	if len(names) != 1 || names[0] != "fieldgate-v1.0.0" {
		t.Fatalf("Generations = %v, want exactly [fieldgate-v1.0.0]", names)
	}

	// Cached asset survives a network outage
	origin.SetOffline(true)
	req, _ := http.NewRequest(http.MethodGet, origin.URL()+"/b.css", nil)
	req.Header.Set("Accept", "text/css")
	resp, err := w.HandleEvent(ctx, worker.FetchEvent{Request: req})
	if err != nil {
		t.Fatalf("fetch offline: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "body{}" {
		t.Errorf("offline body = %q, want cached bytes", body)
	}
}
