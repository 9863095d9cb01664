// Package chat implements the room broadcast engine: join/leave of named
// rooms, message validation and persistence, and presence announcements.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/modules/registry"
)

// MessageStore persists group messages.
type MessageStore interface {
	CreateGroupMessage(ctx context.Context, msg *domain.GroupMessage) error
}

// Emitter publishes the engine's outcomes for the broadcast module to fan
// out. The module implements it over the event bus; tests capture in memory.
type Emitter interface {
	GroupMessageStored(msg domain.GroupMessage)
	PresenceChanged(room string, count int)
}

// Service coordinates the registry, the store, and the emitter. Registry
// mutation happens first, then storage I/O, then emission; no registry lock
// is held across a persistence call.
type Service struct {
	registry *registry.Registry
	store    MessageStore
	emit     Emitter
}

// NewService creates a new room broadcast service.
func NewService(reg *registry.Registry, store MessageStore, emit Emitter) *Service {
	return &Service{registry: reg, store: store, emit: emit}
}

// Join adds the connection to a room (the default room when none is named)
// and announces the new presence count.
func (s *Service) Join(connID, room string) {
	room = strings.TrimSpace(room)
	if room == "" {
		room = domain.DefaultRoom
	}

	// The count is captured inside JoinRoom's critical section but
	// published after it, so concurrent joins to the same room can emit
	// counts out of order. Observers may briefly see a stale count until
	// the next membership change; presence is best-effort, not a ledger.
	count := s.registry.JoinRoom(connID, room)
	if !domain.IsDirectRoom(room) {
		s.emit.PresenceChanged(room, count)
	}
}

// HandleDisconnect releases every registry entry for the connection and
// announces the updated presence count for each affected chat room.
// Conversation rooms carry no presence counts.
func (s *Service) HandleDisconnect(connID string) {
	for room, count := range s.registry.Disconnect(connID) {
		if !domain.IsDirectRoom(room) {
			s.emit.PresenceChanged(room, count)
		}
	}
}

// SendGroupMessage validates, persists, and emits a room message. Invalid
// input is dropped: the error return is for logging only and is never
// surfaced to the sending connection. Chat is fire and forget.
func (s *Service) SendGroupMessage(ctx context.Context, room, text string, sender domain.Sender) error {
	text, err := domain.ValidateText(text)
	if err != nil {
		return err
	}
	if strings.TrimSpace(sender.Name) == "" {
		return domain.ErrMissingSender
	}

	room = strings.TrimSpace(room)
	if room == "" {
		room = domain.DefaultRoom
	}

	msg := domain.GroupMessage{
		ID:        uuid.New().String(),
		Room:      room,
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateGroupMessage(ctx, &msg); err != nil {
		// Persistence failures are logged and swallowed; the room is not
		// notified and no retry is attempted.
		log.Printf("[chat] Failed to persist message for room %s: %v", room, err)
		return fmt.Errorf("failed to persist group message: %w", err)
	}

	s.emit.GroupMessageStored(msg)
	return nil
}
