package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogNotifier writes messages to the log instead of a channel. It is used
// when no chat credentials are configured.
type LogNotifier struct {
	Channel string
}

func (n LogNotifier) Send(_ context.Context, destination, message string) (Delivery, error) {
	log.Info().
		Str("channel", n.Channel).
		Str("destination", destination).
		Str("message", message).
		Msg("notification (log only)")
	return Delivery{}, nil
}
