package store

import (
	"net/http"
	"time"
)

// Entry is an immutable snapshot of a cached HTTP response.
// A re-fetch of the same key overwrites the entry; it is never
// mutated in place.
type Entry struct {
	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Header holds the response headers
	Header http.Header `json:"header"`

	// Body is the response body bytes
	Body []byte `json:"body"`

	// StoredAt is when the response was cached
	StoredAt time.Time `json:"stored_at"`
}

// Clone returns a deep copy of the entry. Backends that hand entries
// to multiple callers use it to preserve immutability.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	body := make([]byte, len(e.Body))
	copy(body, e.Body)
	return &Entry{
		StatusCode: e.StatusCode,
		Header:     e.Header.Clone(),
		Body:       body,
		StoredAt:   e.StoredAt,
	}
}
