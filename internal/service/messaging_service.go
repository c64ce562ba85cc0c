package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/pkg/events"
)

// Realtime frame types.
const (
	FrameMessage = "message"
	FrameStatus  = "status"
)

type MessagingService interface {
	Send(ctx context.Context, p domain.Principal, req *domain.SendMessageRequest) (*domain.Message, error)
	Conversations(ctx context.Context, p domain.Principal) ([]domain.ConversationSummary, error)
	Messages(ctx context.Context, p domain.Principal, conversationID int64) ([]domain.Message, error)
	MarkRead(ctx context.Context, p domain.Principal, conversationID int64) (int64, error)
}

// StatusFrame tells the sender how far the other party has read.
type StatusFrame struct {
	ConversationID int64                `json:"conversation_id"`
	Status         domain.MessageStatus `json:"status"`
}

type messagingService struct {
	messages postgres.MessagesRepo
	users    postgres.UsersRepo
	pusher   Pusher
	eventBus events.EventBus
}

func NewMessagingService(messages postgres.MessagesRepo, users postgres.UsersRepo, pusher Pusher, bus events.EventBus) MessagingService {
	return &messagingService{messages: messages, users: users, pusher: pusher, eventBus: bus}
}

func (s *messagingService) Send(ctx context.Context, p domain.Principal, req *domain.SendMessageRequest) (*domain.Message, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(p.UserID); err != nil {
		return nil, err
	}
	recipient, err := s.users.FindByID(ctx, req.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil {
		return nil, domain.ErrNotFound
	}

	conv, err := s.messages.Conversation(ctx, p.UserID, recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("open conversation: %w", err)
	}
	msg, err := s.messages.Create(ctx, conv.ID, p.UserID, req)
	if err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	if s.pusher != nil {
		s.pusher.SendTo(recipient.ID, FrameMessage, msg)
		// echo to the sender's other tabs
		s.pusher.SendTo(p.UserID, FrameMessage, msg)
	}
	publish(ctx, s.eventBus, events.MessageSent, events.MessageSentEvent{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		SenderID:       p.UserID,
		RecipientID:    recipient.ID,
		Type:           string(msg.Type),
		SentAt:         msg.CreatedAt,
	})
	return msg, nil
}

func (s *messagingService) Conversations(ctx context.Context, p domain.Principal) ([]domain.ConversationSummary, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	return s.messages.ListConversations(ctx, p.UserID)
}

func (s *messagingService) conversationFor(ctx context.Context, p domain.Principal, id int64) (*domain.Conversation, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	conv, err := s.messages.FindConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil || !conv.HasParticipant(p.UserID) {
		return nil, domain.ErrNotFound
	}
	return conv, nil
}

// Messages returns the thread and marks the other party's messages delivered.
func (s *messagingService) Messages(ctx context.Context, p domain.Principal, conversationID int64) ([]domain.Message, error) {
	conv, err := s.conversationFor(ctx, p, conversationID)
	if err != nil {
		return nil, err
	}
	n, err := s.messages.Advance(ctx, conv.ID, p.UserID, domain.MessageDelivered)
	if err != nil {
		return nil, fmt.Errorf("mark delivered: %w", err)
	}
	if n > 0 && s.pusher != nil {
		s.pusher.SendTo(conv.Other(p.UserID), FrameStatus, StatusFrame{ConversationID: conv.ID, Status: domain.MessageDelivered})
	}
	return s.messages.List(ctx, conv.ID)
}

func (s *messagingService) MarkRead(ctx context.Context, p domain.Principal, conversationID int64) (int64, error) {
	conv, err := s.conversationFor(ctx, p, conversationID)
	if err != nil {
		return 0, err
	}
	n, err := s.messages.Advance(ctx, conv.ID, p.UserID, domain.MessageRead)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	if n > 0 && s.pusher != nil {
		s.pusher.SendTo(conv.Other(p.UserID), FrameStatus, StatusFrame{ConversationID: conv.ID, Status: domain.MessageRead})
	}
	return n, nil
}
