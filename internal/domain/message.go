package domain

import (
	"time"

	"github.com/diagnosis/inkbook/internal/utils"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

const MaxMessageLength = 4000

type Conversation struct {
	ID        int64     `json:"id"`
	UserA     int64     `json:"-"`
	UserB     int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID int64) int64 {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

func (c *Conversation) HasParticipant(userID int64) bool {
	return c.UserA == userID || c.UserB == userID
}

// ParticipantPair orders two user ids the way conversations are keyed.
func ParticipantPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

type Message struct {
	ID             int64         `json:"id"`
	ConversationID int64         `json:"conversation_id"`
	SenderID       int64         `json:"sender_id"`
	Type           MessageType   `json:"type"`
	Content        string        `json:"content"`
	ImageURL       *string       `json:"image_url,omitempty"`
	Status         MessageStatus `json:"status"`
	CreatedAt      time.Time     `json:"timestamp"`
}

// ConversationSummary backs the conversations list view.
type ConversationSummary struct {
	ID             int64     `json:"id"`
	RecipientID    int64     `json:"recipient_id"`
	RecipientName  string    `json:"recipient_name"`
	RecipientImage string    `json:"recipient_image"`
	LastMessage    string    `json:"last_message"`
	Timestamp      time.Time `json:"timestamp"`
	UnreadCount    int       `json:"unread_count"`
}

type SendMessageRequest struct {
	RecipientID int64       `json:"recipient_id"`
	Type        MessageType `json:"type"`
	Content     string      `json:"content"`
	ImageURL    string      `json:"image_url,omitempty"`
}

func (r *SendMessageRequest) Normalize() {
	r.Content = utils.NormalizeString(r.Content)
	r.ImageURL = utils.NormalizeString(r.ImageURL)
	if r.Type == "" {
		r.Type = MessageText
	}
}

func (r *SendMessageRequest) Validate(senderID int64) error {
	if r.RecipientID <= 0 {
		return Invalid("recipient_id", "is required")
	}
	if r.RecipientID == senderID {
		return Invalid("recipient_id", "cannot message yourself")
	}
	switch r.Type {
	case MessageText:
		if r.Content == "" {
			return Invalid("content", "is required")
		}
	case MessageImage:
		if r.ImageURL == "" {
			return Invalid("image_url", "is required for image messages")
		}
	default:
		return Invalid("type", "must be text or image")
	}
	if len(r.Content) > MaxMessageLength {
		return Invalid("content", "is too long")
	}
	return nil
}
