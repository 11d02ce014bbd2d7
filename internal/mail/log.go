package mail

import (
	"context"

	"moneytracker/internal/log"
)

// LogDispatcher only logs what would be sent. Used for dry runs and local
// development.
type LogDispatcher struct {
	logger *log.Logger
}

func NewLogDispatcher(logger *log.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.WithComponent(log.ComponentMail)}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "Email not sent (log transport)",
		log.FieldUserID, m.UserID,
		log.FieldPeriod, m.Period,
		"to", m.To,
		"subject", m.Subject,
		"text_bytes", len(m.Text),
		"html_bytes", len(m.HTML))
	return nil
}
