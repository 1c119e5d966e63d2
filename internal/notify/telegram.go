package notify

import (
	"context"
	"fmt"
	"strconv"

	"solhype/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

// TelegramSender is the subset of *tele.Bot used for delivery.
type TelegramSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type TelegramNotifier struct {
	sender TelegramSender
	tracer trace.Tracer
}

func NewTelegramNotifier(sender TelegramSender, tracer trace.Tracer) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, tracer: tracer}
}

// Send posts a Markdown message with link previews disabled. destination is
// a numeric chat id.
func (n *TelegramNotifier) Send(ctx context.Context, destination, message string) (Delivery, error) {
	_, span := n.tracer.Start(ctx, "notify.telegram.send")
	defer span.End()
	span.SetAttributes(attribute.String("destination", destination))

	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: invalid chat id %q", domain.ErrDelivery, destination)
	}

	msg, err := n.sender.Send(tele.ChatID(chatID), Truncate(message, TelegramMaxLength), &tele.SendOptions{
		ParseMode:             tele.ModeMarkdown,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: telegram: %v", domain.ErrDelivery, err)
	}
	if msg == nil {
		return Delivery{}, nil
	}
	return Delivery{MessageID: strconv.Itoa(msg.ID)}, nil
}
