package worker

import (
	"context"
	"fmt"

	"moneytracker/internal/amqp"
	"moneytracker/internal/log"
	"moneytracker/internal/mail"
)

// MailWorker delivers report emails taken off the queue through a concrete
// transport.
type MailWorker struct {
	dispatcher mail.Dispatcher
	logger     *log.Logger
}

func NewMailWorker(dispatcher mail.Dispatcher, logger *log.Logger) *MailWorker {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &MailWorker{dispatcher: dispatcher, logger: logger.WithComponent(log.ComponentMail)}
}

// HandleReportEmail sends one queued email. A returned error makes the
// consumer requeue the message.
func (w *MailWorker) HandleReportEmail(ctx context.Context, msg *amqp.ReportEmailMessage) error {
	w.logger.InfoContext(ctx, "Processing report email",
		"message_id", msg.ID,
		log.FieldUserID, msg.UserID,
		log.FieldPeriod, msg.Period)

	if err := w.dispatcher.Dispatch(ctx, mail.FromQueued(msg)); err != nil {
		return fmt.Errorf("deliver report email %s: %w", msg.ID, err)
	}
	return nil
}
