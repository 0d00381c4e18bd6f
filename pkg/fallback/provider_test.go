package fallback

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldgate/fieldgate/pkg/store"
)

const (
	testGen    = "fieldgate-test-v1"
	offlineURL = "https://origin.example/offline.html"
)

func TestRespondHTMLWithOfflinePage(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	key := store.Key{Method: http.MethodGet, URL: offlineURL}
	if err := s.Put(ctx, testGen, key, &store.Entry{StatusCode: 200, Body: []byte("<html>offline</html>")}); err != nil {
		t.Fatalf("seed offline page: %v", err)
	}

	p := NewProvider(s, Config{Generation: testGen, OfflineURL: offlineURL})

	req := httptest.NewRequest(http.MethodGet, "https://origin.example/dashboard", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp := p.Respond(ctx, req)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "<html>offline</html>" {
		t.Errorf("body = %q, want offline page", body)
	}
}

func TestRespondHTMLWithoutOfflinePage(t *testing.T) {
	p := NewProvider(store.NewMemory(), Config{Generation: testGen, OfflineURL: offlineURL})

	req := httptest.NewRequest(http.MethodGet, "https://origin.example/dashboard", nil)
	req.Header.Set("Accept", "text/html")

	resp := p.Respond(context.Background(), req)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when offline page is not cached", resp.StatusCode)
	}
}

func TestRespondErrorShape(t *testing.T) {
	p := NewProvider(store.NewMemory(), Config{Generation: testGen, OfflineURL: offlineURL})

	req := httptest.NewRequest(http.MethodGet, "https://origin.example/api/x", nil)
	req.Header.Set("Accept", "application/json")

	resp := p.Respond(context.Background(), req)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var body ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "Offline" {
		t.Errorf("error = %q, want Offline", body.Error)
	}
	if body.Message != OfflineMessage {
		t.Errorf("message = %q, want bilingual offline message", body.Message)
	}
	if body.Cached {
		t.Error("cached = true, want false")
	}
}
