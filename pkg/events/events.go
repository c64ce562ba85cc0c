package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/inkbook/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url, name string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(toMessage(msg))
	})
	return err
}

func toMessage(msg *nats.Msg) *Message {
	now := time.Now()
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: now,
		ID:        fmt.Sprintf("%d", now.UnixNano()),
	}
}

// Close drains pending messages before closing the connection.
func (n *NATSEventBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// NopBus drops every event. Used when NATS is not reachable in development.
type NopBus struct{}

func (NopBus) Publish(ctx context.Context, subject string, _ interface{}) error {
	logger.DebugContext(ctx, "Dropping event, no bus configured", "subject", subject)
	return nil
}
func (NopBus) Subscribe(string, func(*Message)) error              { return nil }
func (NopBus) QueueSubscribe(string, string, func(*Message)) error { return nil }
func (NopBus) Close() error                                        { return nil }

var (
	_ EventBus = (*NATSEventBus)(nil)
	_ EventBus = NopBus{}
)

// Event types and subjects
const (
	// Booking events
	BookingCreated  = "booking.created"
	BookingCanceled = "booking.canceled"

	// Payment events
	PaymentCaptured = "payment.captured"
	PaymentFailed   = "payment.failed"
	PaymentRefunded = "payment.refunded"

	// Consultation events
	ConsultationRequested = "consultation.requested"
	ConsultationResponded = "consultation.responded"

	// Messaging events
	MessageSent = "message.sent"
)

// Party identifies a user on either side of an event for the notifier.
type Party struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Event payloads
type BookingCreatedEvent struct {
	BookingID    int64     `json:"booking_id"`
	SlotID       int64     `json:"slot_id"`
	Client       Party     `json:"client"`
	Artist       Party     `json:"artist"`
	StartsAt     time.Time `json:"starts_at"`
	DepositCents int64     `json:"deposit_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

type BookingCanceledEvent struct {
	BookingID  int64     `json:"booking_id"`
	Client     Party     `json:"client"`
	Artist     Party     `json:"artist"`
	StartsAt   time.Time `json:"starts_at"`
	CanceledBy string    `json:"canceled_by"`
	Refunded   bool      `json:"refunded"`
	CanceledAt time.Time `json:"canceled_at"`
}

type PaymentEvent struct {
	BookingID int64  `json:"booking_id"`
	IntentID  string `json:"intent_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type ConsultationRequestedEvent struct {
	ConsultationID int64  `json:"consultation_id"`
	Client         Party  `json:"client"`
	Artist         Party  `json:"artist"`
	Type           string `json:"type"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Description    string `json:"description"`
}

type ConsultationRespondedEvent struct {
	ConsultationID int64  `json:"consultation_id"`
	Client         Party  `json:"client"`
	Artist         Party  `json:"artist"`
	Status         string `json:"status"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

type MessageSentEvent struct {
	MessageID      int64     `json:"message_id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	RecipientID    int64     `json:"recipient_id"`
	Type           string    `json:"type"`
	SentAt         time.Time `json:"sent_at"`
}
