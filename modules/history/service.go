// Package history serves message history reads: recent room messages,
// per-user conversation summaries, conversation pages, and read receipts.
// Room history is cached (cache-aside) and invalidated when new messages
// arrive.
package history

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	domain "github.com/example/chat-backend/domain/chat"
)

const (
	// DefaultLimit is used when the caller asks for zero or negative messages.
	DefaultLimit = 50
	// MaxLimit caps a single history page.
	MaxLimit = 200
)

// GroupStore reads and deletes room messages.
type GroupStore interface {
	GroupMessagesByRoom(ctx context.Context, room string, limit int) ([]domain.GroupMessage, error)
	DeleteGroupMessage(ctx context.Context, id string) error
}

// DirectStore reads direct messages and flips read flags.
type DirectStore interface {
	DirectMessagesByConversation(ctx context.Context, conversationID string, limit int) ([]domain.DirectMessage, error)
	DirectMessagesForUser(ctx context.Context, userID string) ([]domain.DirectMessage, error)
	MarkConversationRead(ctx context.Context, conversationID, userID string) (int64, error)
}

// ResultCache is the subset of the cache module the service needs.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	DeletePattern(ctx context.Context, pattern string) error
}

// ConversationSummary is one row of a user's conversation list.
type ConversationSummary struct {
	ConversationID string               `json:"conversationId"`
	LastMessage    domain.DirectMessage `json:"lastMessage"`
	UnreadCount    int                  `json:"unreadCount"`
}

// Service answers history queries.
type Service struct {
	groups  GroupStore
	directs DirectStore
	cache   ResultCache
	group   singleflight.Group
}

// NewService creates a new history service. cache may be a degraded
// (always-miss) cache.
func NewService(groups GroupStore, directs DirectStore, cache ResultCache) *Service {
	return &Service{groups: groups, directs: directs, cache: cache}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// reverse flips a newest-first page into chronological order in place.
func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func roomCacheKey(room string, limit int) string {
	return fmt.Sprintf("room:%s:%d", room, limit)
}

// GroupMessages returns the last messages of a room in chronological order.
// Reads go through the cache; concurrent misses for the same key collapse
// into a single database query.
func (s *Service) GroupMessages(ctx context.Context, room string, limit int) ([]domain.GroupMessage, error) {
	if room == "" {
		room = domain.DefaultRoom
	}
	limit = clampLimit(limit)

	key := roomCacheKey(room, limit)

	var cached []domain.GroupMessage
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		messages, err := s.groups.GroupMessagesByRoom(ctx, room, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load room history: %w", err)
		}
		reverse(messages)

		// Best effort: a failed cache write must not fail the read.
		_ = s.cache.Set(ctx, key, messages)
		return messages, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.GroupMessage), nil
}

// InvalidateRoom drops every cached page of a room.
func (s *Service) InvalidateRoom(ctx context.Context, room string) error {
	return s.cache.DeletePattern(ctx, fmt.Sprintf("room:%s:*", room))
}

// Conversations returns the user's conversation list, most recent first.
// Each row carries the latest message and the user's unread count.
func (s *Service) Conversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	if userID == "" {
		return nil, domain.ErrMissingParticipant
	}

	messages, err := s.directs.DirectMessagesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user messages: %w", err)
	}

	// Messages arrive newest first, so the first message seen per
	// conversation is its latest, and first-seen order is recency order.
	index := make(map[string]int)
	summaries := make([]ConversationSummary, 0)

	for _, msg := range messages {
		i, seen := index[msg.ConversationID]
		if !seen {
			index[msg.ConversationID] = len(summaries)
			summaries = append(summaries, ConversationSummary{
				ConversationID: msg.ConversationID,
				LastMessage:    msg,
			})
			i = len(summaries) - 1
		}
		if msg.To.UserID == userID && !msg.Read {
			summaries[i].UnreadCount++
		}
	}

	return summaries, nil
}

// DirectMessages returns a conversation page in chronological order.
func (s *Service) DirectMessages(ctx context.Context, conversationID string, limit int) ([]domain.DirectMessage, error) {
	if conversationID == "" {
		return nil, domain.ErrMissingParticipant
	}
	limit = clampLimit(limit)

	messages, err := s.directs.DirectMessagesByConversation(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}
	reverse(messages)
	return messages, nil
}

// MarkRead flags the user's unread messages in a conversation as read.
// Returns the number of messages updated; repeating the call is a no-op.
func (s *Service) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	if conversationID == "" || userID == "" {
		return 0, domain.ErrMissingParticipant
	}
	return s.directs.MarkConversationRead(ctx, conversationID, userID)
}

// DeleteGroupMessage removes a room message and drops stale cached pages.
func (s *Service) DeleteGroupMessage(ctx context.Context, id string) error {
	if err := s.groups.DeleteGroupMessage(ctx, id); err != nil {
		return err
	}
	// The room is unknown at this point, so every cached page goes.
	_ = s.cache.DeletePattern(ctx, "room:*")
	return nil
}
