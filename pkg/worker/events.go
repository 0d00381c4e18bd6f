package worker

import (
	"net/http"

	"github.com/fieldgate/fieldgate/pkg/push"
)

// Event is a tagged lifecycle, fetch or edge event routed by the
// worker. The host runtime constructs one per trigger and hands it to
// HandleEvent.
type Event interface {
	isEvent()
}

// InstallEvent fires once per new version; it must resolve before
// ActivateEvent may fire.
type InstallEvent struct{}

// ActivateEvent fires when the new version takes over.
type ActivateEvent struct{}

// FetchEvent fires per intercepted request.
type FetchEvent struct {
	Request *http.Request
}

// SyncEvent fires with a tag identifying the sync reason, e.g. a
// connectivity-restored signal.
type SyncEvent struct {
	Tag string
}

// PushEvent fires with an opaque push payload.
type PushEvent struct {
	Data []byte
}

// MessageEvent fires with a typed control message from the host
// application.
type MessageEvent struct {
	Message push.Message
}

// NotificationClickEvent fires with the action the user chose on a
// displayed notification.
type NotificationClickEvent struct {
	Action string
}

func (InstallEvent) isEvent()           {}
func (ActivateEvent) isEvent()          {}
func (FetchEvent) isEvent()             {}
func (SyncEvent) isEvent()              {}
func (PushEvent) isEvent()              {}
func (MessageEvent) isEvent()           {}
func (NotificationClickEvent) isEvent() {}
