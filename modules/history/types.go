package history

import (
	domain "github.com/example/chat-backend/domain/chat"
)

// GroupHistoryRequest asks for the last messages of a room.
type GroupHistoryRequest struct {
	Room  string `json:"room"`
	Limit int    `json:"limit"`
}

// GroupHistoryResponse carries room messages in chronological order.
type GroupHistoryResponse struct {
	Room     string                `json:"room"`
	Messages []domain.GroupMessage `json:"messages"`
}

// ConversationsRequest asks for a user's conversation list.
type ConversationsRequest struct {
	UserID string `json:"userId"`
}

// ConversationsResponse carries conversation summaries, most recent first.
type ConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// DirectHistoryRequest asks for one conversation's messages.
type DirectHistoryRequest struct {
	ConversationID string `json:"conversationId"`
	Limit          int    `json:"limit"`
}

// DirectHistoryResponse carries conversation messages in chronological order.
type DirectHistoryResponse struct {
	ConversationID string                 `json:"conversationId"`
	Messages       []domain.DirectMessage `json:"messages"`
}

// MarkReadRequest flags a conversation as read for a user.
type MarkReadRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// MarkReadResponse reports how many messages were updated.
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// DeleteMessageRequest removes a room message by id.
type DeleteMessageRequest struct {
	ID string `json:"id"`
}

// DeleteMessageResponse acknowledges the deletion.
type DeleteMessageResponse struct {
	Deleted bool `json:"deleted"`
}
