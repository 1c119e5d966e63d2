// Package notify delivers formatted messages to chat and social channels.
package notify

import "context"

// Delivery identifies a message accepted by a channel.
type Delivery struct {
	MessageID string
	URL       string
}

// Notifier sends message to destination. Failures wrap domain.ErrDelivery.
type Notifier interface {
	Send(ctx context.Context, destination, message string) (Delivery, error)
}
