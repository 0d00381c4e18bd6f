package store

import (
	"bytes"
	"io"
	"net/http"
	"testing"
)

func TestResponseToEntry(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		wantErr bool
	}{
		{
			name: "valid response",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Content-Type": []string{"text/css"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte("body{color:green}"))),
			},
			wantErr: false,
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ResponseToEntry(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResponseToEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %d, want %d", entry.StatusCode, tt.resp.StatusCode)
			}
			if entry.StoredAt.IsZero() {
				t.Error("StoredAt not set")
			}

			// Body must be restored for the caller
			restored, _ := io.ReadAll(tt.resp.Body)
			if !bytes.Equal(restored, entry.Body) {
				t.Error("response body was not restored after snapshot")
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &Entry{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(`{"price": 42}`),
	}

	resp := EntryToResponse(entry)
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != `{"price": 42}` {
		t.Errorf("body = %q", body)
	}
	if resp.ContentLength != int64(len(entry.Body)) {
		t.Errorf("ContentLength = %d, want %d", resp.ContentLength, len(entry.Body))
	}
}

func TestEntryRoundTrip(t *testing.T) {
	live := &http.Response{
		StatusCode: 200,
		Header:     http.Header{"X-Test": []string{"1"}},
		Body:       io.NopCloser(bytes.NewReader([]byte("payload"))),
	}

	entry, err := ResponseToEntry(live)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	resp := EntryToResponse(entry)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "payload" {
		t.Errorf("round-tripped body = %q, want %q", body, "payload")
	}
	if resp.Header.Get("X-Test") != "1" {
		t.Error("round-tripped header missing")
	}
}
