package mq

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Display implements notify.Display by handing the notification to the bot
// over RabbitMQ.
type Display struct {
	pub *Publisher
}

// NewDisplay creates a display that publishes show requests to RabbitMQ.
func NewDisplay(pub *Publisher) *Display {
	return &Display{pub: pub}
}

// Show publishes a show request to the queue.
func (d *Display) Show(ctx context.Context, title, body string) error {
	msg := ShowMsg{
		MessageID: uuid.NewString(),
		Title:     title,
		Body:      body,
		At:        time.Now(),
	}
	return d.pub.Publish(ctx, RoutingNotifyShow, msg.MessageID, msg)
}
