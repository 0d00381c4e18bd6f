package lifecycle

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/fieldgate/fieldgate/internal/testutil"
	"github.com/fieldgate/fieldgate/pkg/store"
)

func setupManager(t *testing.T, gen string, manifest []string) (*Manager, *testutil.MockOrigin, store.Store) {
	t.Helper()

	origin := testutil.NewMockOrigin()
	t.Cleanup(origin.Close)

	urls := make([]string, len(manifest))
	for i, p := range manifest {
		urls[i] = origin.URL() + p
	}

	s := store.NewMemory()
	m, err := NewManager(s, origin.Client(), Config{
		Generation: gen,
		Manifest:   urls,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	return m, origin, s
}

func TestNewManagerValidation(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	if _, err := NewManager(nil, origin.Client(), Config{Generation: "v1"}); err == nil {
		t.Error("NewManager without store should fail")
	}
	if _, err := NewManager(store.NewMemory(), nil, Config{Generation: "v1"}); err == nil {
		t.Error("NewManager without fetcher should fail")
	}
	if _, err := NewManager(store.NewMemory(), origin.Client(), Config{}); err == nil {
		t.Error("NewManager without generation should fail")
	}
}

func TestInstallPopulatesManifest(t *testing.T) {
	ctx := context.Background()
	m, origin, s := setupManager(t, "v1", []string{"/a.html", "/b.css"})
	origin.SetResponse("/a.html", testutil.MockResponse{StatusCode: 200, Body: "<html>a</html>"})
	origin.SetResponse("/b.css", testutil.MockResponse{StatusCode: 200, Body: "body{}"})

	if err := m.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}

	for _, path := range []string{"/a.html", "/b.css"} {
		key := store.Key{Method: http.MethodGet, URL: origin.URL() + path}
		if _, err := s.Match(ctx, "v1", key); err != nil {
			t.Errorf("manifest entry %s not cached: %v", path, err)
		}
	}
}

func TestInstallFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	m, origin, s := setupManager(t, "v1", []string{"/a.html", "/missing.css"})
	origin.SetResponse("/a.html", testutil.MockResponse{StatusCode: 200, Body: "<html>a</html>"})
	origin.SetResponse("/missing.css", testutil.MockResponse{StatusCode: 404, Body: "not found"})

	err := m.Install(ctx)
	if !errors.Is(err, ErrInstallFailed) {
		t.Fatalf("Install = %v, want ErrInstallFailed", err)
	}

	// A partial install must not be left addressable
	names, _ := s.Generations(ctx)
	if len(names) != 0 {
		t.Errorf("partial generation committed: %v", names)
	}

	// And it must not be activatable
	if err := m.Activate(ctx); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Activate after failed install = %v, want ErrNotInstalled", err)
	}
}

func TestInstallFailsOffline(t *testing.T) {
	ctx := context.Background()
	m, origin, _ := setupManager(t, "v1", []string{"/a.html"})
	origin.SetOffline(true)

	if err := m.Install(ctx); !errors.Is(err, ErrInstallFailed) {
		t.Fatalf("Install offline = %v, want ErrInstallFailed", err)
	}
}

func TestActivateExclusivity(t *testing.T) {
	ctx := context.Background()
	m, origin, s := setupManager(t, "v3", []string{"/a.html"})
	origin.SetResponse("/a.html", testutil.MockResponse{StatusCode: 200, Body: "a"})

	// Entries left behind by prior deployments
	old := store.Key{Method: http.MethodGet, URL: origin.URL() + "/old"}
	for _, gen := range []string{"v1", "v2"} {
		if err := s.Put(ctx, gen, old, &store.Entry{StatusCode: 200, Body: []byte("stale")}); err != nil {
			t.Fatalf("seed old generation: %v", err)
		}
	}

	if err := m.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if m.Ready() {
		t.Error("Ready before Activate")
	}
	if err := m.Activate(ctx); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !m.Ready() {
		t.Error("not Ready after Activate")
	}

	names, err := s.Generations(ctx)
	if err != nil {
		t.Fatalf("Generations: %v", err)
	}
	if len(names) != 1 || names[0] != "v3" {
		t.Errorf("Generations after Activate = %v, want exactly [v3]", names)
	}
}

func TestActivateBeforeInstall(t *testing.T) {
	m, _, _ := setupManager(t, "v1", nil)

	if err := m.Activate(context.Background()); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Activate before Install = %v, want ErrNotInstalled", err)
	}
}

func TestWarmBestEffort(t *testing.T) {
	ctx := context.Background()
	m, origin, s := setupManager(t, "v1", nil)
	origin.SetResponse("/good", testutil.MockResponse{StatusCode: 200, Body: "good"})
	origin.SetResponse("/bad", testutil.MockResponse{StatusCode: 500, Body: "boom"})

	m.Warm(ctx, []string{origin.URL() + "/bad", origin.URL() + "/good"})

	// The failed URL is skipped, the good one is cached
	goodKey := store.Key{Method: http.MethodGet, URL: origin.URL() + "/good"}
	if _, err := s.Match(ctx, "v1", goodKey); err != nil {
		t.Errorf("warmed entry missing: %v", err)
	}
	badKey := store.Key{Method: http.MethodGet, URL: origin.URL() + "/bad"}
	if _, err := s.Match(ctx, "v1", badKey); !errors.Is(err, store.ErrCacheMiss) {
		t.Errorf("failed warm should not cache, got %v", err)
	}
}
