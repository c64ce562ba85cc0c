package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

var ErrDisabled = errors.New("mailer disabled: MAILERSEND_API_KEY and SMTP_FROM are required")

const sendTimeout = 10 * time.Second

// MailerSend sends through the MailerSend HTTP API. Every message is tagged "inkbook" for the provider dashboard.
type MailerSend struct {
	client *mailersend.Mailersend
	from   mailersend.From
	tags   []string
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSend {
	m := &MailerSend{
		from: mailersend.From{Name: fromName, Email: fromEmail},
		tags: []string{"inkbook"},
	}
	if apiKey != "" && fromEmail != "" {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *MailerSend) Enabled() bool {
	return m != nil && m.client != nil
}

func (m *MailerSend) Send(toEmail, toName, subject, text, html string) (string, error) {
	if !m.Enabled() {
		return "", ErrDisabled
	}
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return "", errors.New("recipient is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	msg.SetTags(m.tags)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("mailersend send: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}
