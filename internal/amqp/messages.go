package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReportEmailType is the AMQP message type of a queued report email.
const ReportEmailType = "report.email"

// ReportEmailMessage carries a fully rendered report email, so the worker
// only has to deliver it.
type ReportEmailMessage struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Period    string    `json:"period"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewReportEmailMessage stamps a message with a fresh id and time.
func NewReportEmailMessage(userID int64, period, to, subject, text, html string) *ReportEmailMessage {
	return &ReportEmailMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Period:    period,
		To:        to,
		Subject:   subject,
		Text:      text,
		HTML:      html,
		CreatedAt: time.Now(),
	}
}

func (m *ReportEmailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportEmailMessageFromJSON decodes a message and rejects one without a
// recipient.
func ReportEmailMessageFromJSON(data []byte) (*ReportEmailMessage, error) {
	var msg ReportEmailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.To == "" {
		return nil, errors.New("report email without recipient")
	}
	return &msg, nil
}
