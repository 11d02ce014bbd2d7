package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	goption "google.golang.org/api/option"
)

// GmailDispatcher sends through the Gmail API as From, using a service
// account with domain-wide delegation.
type GmailDispatcher struct {
	users *gmail.UsersMessagesService
	from  string
}

// NewGmailDispatcher builds a dispatcher from service account credentials,
// given inline or as a file path.
func NewGmailDispatcher(ctx context.Context, credentialsJSON, credentialsFile, from string) (*GmailDispatcher, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)

	var raw []byte
	switch {
	case credentialsJSON != "":
		raw = []byte(credentialsJSON)
	case credentialsFile != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GMAIL_CREDENTIALS_JSON or GMAIL_CREDENTIALS_FILE)")
	}

	conf, err := google.JWTConfigFromJSON(raw, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	// impersonate the sender mailbox
	conf.Subject = from

	svc, err := gmail.NewService(ctx, goption.WithTokenSource(conf.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	slog.InfoContext(ctx, "Gmail service created", "from", from)
	return &GmailDispatcher{users: svc.Users.Messages, from: from}, nil
}

func (d *GmailDispatcher) Dispatch(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	raw, err := encodeRaw(d.from, m)
	if err != nil {
		return err
	}
	sent, err := d.users.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send to %s: %w", m.To, err)
	}
	slog.InfoContext(ctx, "Email sent", "transport", "gmail", "to", m.To, "gmail_id", sent.Id)
	return nil
}

// encodeRaw renders m as an RFC 5322 message in the URL-safe base64 form the
// Gmail API expects.
func encodeRaw(from string, m Message) (string, error) {
	msg, err := buildMIME(from, m)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}
