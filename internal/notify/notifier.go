package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/diagnosis/inkbook/pkg/events"
	"github.com/diagnosis/inkbook/pkg/logger"
	"github.com/diagnosis/inkbook/pkg/mailer"
)

// QueueGroup spreads events across notifier replicas so each one is mailed once.
const QueueGroup = "notify"

var Subjects = []string{
	events.BookingCreated,
	events.BookingCanceled,
	events.ConsultationRequested,
	events.ConsultationResponded,
}

type email struct {
	to      events.Party
	subject string
	text    string
}

type Notifier struct {
	mail mailer.Sender
}

func New(mail mailer.Sender) *Notifier {
	return &Notifier{mail: mail}
}

// Subscribe registers the notifier for every subject it renders.
func (n *Notifier) Subscribe(bus events.Subscriber) error {
	for _, subject := range Subjects {
		if err := bus.QueueSubscribe(subject, QueueGroup, n.handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

func (n *Notifier) handle(msg *events.Message) {
	ctx := context.WithValue(context.Background(), logger.RequestIDKey, msg.ID)
	if err := n.Handle(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to send notification", "error", err, "subject", msg.Subject)
	}
}

// Handle renders and sends the emails for one event. Parties without an email address are skipped.
func (n *Notifier) Handle(ctx context.Context, msg *events.Message) error {
	mails, err := render(msg)
	if err != nil {
		return err
	}
	for _, m := range mails {
		if m.to.Email == "" {
			logger.WarnContext(ctx, "Skipping notification without recipient", "subject", msg.Subject, "user_id", m.to.UserID)
			continue
		}
		id, err := n.mail.Send(m.to.Email, m.to.Name, m.subject, m.text, toHTML(m.text))
		if err != nil {
			return fmt.Errorf("send %q to user %d: %w", m.subject, m.to.UserID, err)
		}
		logger.InfoContext(ctx, "Notification sent", "subject", msg.Subject, "user_id", m.to.UserID, "message_id", id)
	}
	return nil
}

func render(msg *events.Message) ([]email, error) {
	switch msg.Subject {
	case events.BookingCreated:
		var e events.BookingCreatedEvent
		if err := msg.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		when := formatTime(e.StartsAt)
		clientText := fmt.Sprintf("Hi %s,\n\nYour session with %s on %s is confirmed (booking #%d).", e.Client.Name, e.Artist.Name, when, e.BookingID)
		if e.DepositCents > 0 {
			clientText += fmt.Sprintf("\nA deposit of %s is due to hold the slot.", formatCents(e.DepositCents))
		}
		return []email{
			{to: e.Client, subject: "Your tattoo session is booked", text: clientText},
			{to: e.Artist, subject: "New booking", text: fmt.Sprintf("Hi %s,\n\n%s booked your slot on %s (booking #%d).", e.Artist.Name, e.Client.Name, when, e.BookingID)},
		}, nil

	case events.BookingCanceled:
		var e events.BookingCanceledEvent
		if err := msg.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		when := formatTime(e.StartsAt)
		clientText := fmt.Sprintf("Hi %s,\n\nYour session with %s on %s was canceled.", e.Client.Name, e.Artist.Name, when)
		if e.Refunded {
			clientText += "\nYour deposit has been refunded."
		}
		return []email{
			{to: e.Client, subject: "Booking canceled", text: clientText},
			{to: e.Artist, subject: "Booking canceled", text: fmt.Sprintf("Hi %s,\n\nThe session with %s on %s was canceled and the slot is open again.", e.Artist.Name, e.Client.Name, when)},
		}, nil

	case events.ConsultationRequested:
		var e events.ConsultationRequestedEvent
		if err := msg.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		return []email{{
			to:      e.Artist,
			subject: "New consultation request",
			text: fmt.Sprintf("Hi %s,\n\n%s asked for a %s consultation on %s at %s:\n\n%s",
				e.Artist.Name, e.Client.Name, consultationKind(e.Type), e.Date, e.Time, e.Description),
		}}, nil

	case events.ConsultationResponded:
		var e events.ConsultationRespondedEvent
		if err := msg.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", msg.Subject, err)
		}
		return []email{{
			to:      e.Client,
			subject: "Consultation " + e.Status,
			text:    fmt.Sprintf("Hi %s,\n\n%s %s your consultation on %s at %s.", e.Client.Name, e.Artist.Name, e.Status, e.Date, e.Time),
		}}, nil
	}
	return nil, fmt.Errorf("unsupported subject %q", msg.Subject)
}

func consultationKind(t string) string {
	if t == "in_person" {
		return "in-person"
	}
	return t
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Mon Jan 2, 2006 at 15:04 MST")
}

func formatCents(c int64) string {
	return fmt.Sprintf("$%d.%02d", c/100, c%100)
}

func toHTML(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>"
}
