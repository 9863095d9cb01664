// Package direct implements the private messaging router: identity
// registration, conversation subscriptions, and 1:1 message delivery.
package direct

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	domain "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/modules/registry"
)

// MessageStore persists direct messages.
type MessageStore interface {
	CreateDirectMessage(ctx context.Context, msg *domain.DirectMessage) error
}

// Emitter publishes stored direct messages for fan-out.
type Emitter interface {
	DirectMessageStored(msg domain.DirectMessage)
}

// Service routes direct messages through the registry and store.
type Service struct {
	registry *registry.Registry
	store    MessageStore
	emit     Emitter
}

// NewService creates a new direct message service.
func NewService(reg *registry.Registry, store MessageStore, emit Emitter) *Service {
	return &Service{registry: reg, store: store, emit: emit}
}

// Register binds a user identity to the connection so notifications can
// reach them. A user registering from a second session silently replaces
// the delivery target.
func (s *Service) Register(connID, userID string) {
	s.registry.BindUser(connID, userID)
}

// JoinConversation subscribes the connection to a conversation's delivery
// room. Conversation rooms carry no presence counts.
func (s *Service) JoinConversation(connID, conversationID string) {
	if conversationID == "" {
		return
	}
	s.registry.JoinRoom(connID, domain.DirectRoom(conversationID))
}

// SendDirectMessage validates, persists, and emits a direct message.
// Invalid input is dropped; the error return is for logging only.
// If the recipient is offline the message is durable in storage only.
func (s *Service) SendDirectMessage(ctx context.Context, from, to domain.UserRef, text string) error {
	text, err := domain.ValidateText(text)
	if err != nil {
		return err
	}
	if from.UserID == "" || to.UserID == "" {
		return domain.ErrMissingParticipant
	}

	msg := domain.DirectMessage{
		ID:             uuid.New().String(),
		ConversationID: domain.ConversationID(from.UserID, to.UserID),
		From:           from,
		To:             to,
		Text:           text,
		Read:           false,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.CreateDirectMessage(ctx, &msg); err != nil {
		log.Printf("[direct] Failed to persist message for conversation %s: %v", msg.ConversationID, err)
		return fmt.Errorf("failed to persist direct message: %w", err)
	}

	s.emit.DirectMessageStored(msg)
	return nil
}
