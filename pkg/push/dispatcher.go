// Package push holds the thin edges of the gateway: inbound push
// notifications and control messages from the host application.
package push

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Default notification fields applied when the push payload carries none.
const (
	DefaultTitle = "Fieldgate Alert"
	DefaultBody  = "New update available!"
	DefaultIcon  = "/static/icons/icon-192.png"
	DefaultBadge = "/static/icons/badge-72.png"
)

// ActionExplore is the notification action that opens the app.
const ActionExplore = "explore"

// NotificationAction is one button on a displayed notification.
type NotificationAction struct {
	Action string
	Title  string
	Icon   string
}

// Notification is the transient payload handed to the host display
// layer. It is valid only for the duration of one push event and is
// never persisted.
type Notification struct {
	Title   string
	Body    string
	Icon    string
	Badge   string
	Actions []NotificationAction
}

// Display is the host-side surface that shows notifications.
type Display interface {
	Show(ctx context.Context, n Notification) error
}

// ClickResult signals what the host should do after a notification
// click. An empty OpenURL means no action.
type ClickResult struct {
	OpenURL string
}

// Dispatcher turns push payloads into notifications and click events
// into host signals.
type Dispatcher struct {
	display Display
	logger  zerolog.Logger
}

// NewDispatcher creates a push dispatcher.
func NewDispatcher(display Display) *Dispatcher {
	return &Dispatcher{
		display: display,
		logger:  log.With().Str("component", "push").Logger(),
	}
}

// HandlePush builds a notification from an opaque push payload and
// surfaces it to the display layer. An undisplayable push is logged
// and dropped, never reported as an error.
func (d *Dispatcher) HandlePush(ctx context.Context, payload []byte) {
	n := Notification{
		Title: DefaultTitle,
		Body:  DefaultBody,
		Icon:  DefaultIcon,
		Badge: DefaultBadge,
		Actions: []NotificationAction{
			{Action: ActionExplore, Title: "View Details", Icon: "/static/icons/checkmark.png"},
			{Action: "close", Title: "Close", Icon: "/static/icons/xmark.png"},
		},
	}
	if len(payload) > 0 {
		n.Body = string(payload)
	}

	if d.display == nil {
		d.logger.Debug().Msg("No display layer, dropping push")
		return
	}
	if err := d.display.Show(ctx, n); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to show notification")
	}
}

// HandleClick records the action the user selected. The explore
// action asks the host to open the app window; everything else,
// including close, is a no-op.
func (d *Dispatcher) HandleClick(_ context.Context, action string) ClickResult {
	d.logger.Debug().Str("action", action).Msg("Notification clicked")

	if action == ActionExplore {
		return ClickResult{OpenURL: "/"}
	}
	return ClickResult{}
}
