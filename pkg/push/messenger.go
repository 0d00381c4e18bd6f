package push

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Control message types accepted from the host application.
const (
	MessageSkipWaiting = "SKIP_WAITING"
	MessageCacheURLs   = "CACHE_URLS"
)

// Message is a typed control message from the host application.
type Message struct {
	Type string   `json:"type"`
	URLs []string `json:"urls,omitempty"`
}

// Lifecycle is the subset of the generation manager the messenger drives.
type Lifecycle interface {
	Activate(ctx context.Context) error
	Warm(ctx context.Context, urls []string)
}

// Messenger routes host control messages: immediate activation and
// cache pre-warming. Unknown messages are ignored silently.
type Messenger struct {
	lifecycle Lifecycle
	logger    zerolog.Logger
}

// NewMessenger creates a control-message handler.
func NewMessenger(lifecycle Lifecycle) *Messenger {
	return &Messenger{
		lifecycle: lifecycle,
		logger:    log.With().Str("component", "messenger").Logger(),
	}
}

// HandleMessage routes one control message.
func (m *Messenger) HandleMessage(ctx context.Context, msg Message) {
	switch msg.Type {
	case MessageSkipWaiting:
		m.logger.Info().Msg("Skip-waiting requested, activating immediately")
		if err := m.lifecycle.Activate(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("Immediate activation failed")
		}
	case MessageCacheURLs:
		m.logger.Info().Int("urls", len(msg.URLs)).Msg("Pre-warming cache")
		m.lifecycle.Warm(ctx, msg.URLs)
	default:
		m.logger.Debug().Str("type", msg.Type).Msg("Ignoring unknown message")
	}
}
