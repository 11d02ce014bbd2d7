package mail

import (
	"context"
	"fmt"

	"moneytracker/internal/amqp"
)

// Publisher is the part of amqp.Client the queue dispatcher needs.
type Publisher interface {
	PublishReportEmail(ctx context.Context, msg *amqp.ReportEmailMessage) error
}

// QueueDispatcher hands messages to the broker; cmd/mail-worker delivers
// them. Dispatch succeeds once the broker accepted the message.
type QueueDispatcher struct {
	pub Publisher
}

func NewQueueDispatcher(pub Publisher) *QueueDispatcher {
	return &QueueDispatcher{pub: pub}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	msg := amqp.NewReportEmailMessage(m.UserID, m.Period, m.To, m.Subject, m.Text, m.HTML)
	if err := d.pub.PublishReportEmail(ctx, msg); err != nil {
		return fmt.Errorf("queue email for %s: %w", m.To, err)
	}
	return nil
}

// FromQueued turns a queued job back into a message.
func FromQueued(msg *amqp.ReportEmailMessage) Message {
	return Message{
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
		UserID:  msg.UserID,
		Period:  msg.Period,
	}
}
