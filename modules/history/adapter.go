package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/chat-backend/domain/chat"
)

// HistoryPort is the surface other modules use to query message history.
type HistoryPort interface {
	GroupMessages(ctx context.Context, room string, limit int) ([]domain.GroupMessage, error)
	Conversations(ctx context.Context, userID string) ([]ConversationSummary, error)
	DirectMessages(ctx context.Context, conversationID string, limit int) ([]domain.DirectMessage, error)
	MarkRead(ctx context.Context, conversationID, userID string) (int64, error)
	DeleteGroupMessage(ctx context.Context, id string) error
}

// HistoryAdapter implements HistoryPort over the service container.
type HistoryAdapter struct {
	container mono.ServiceContainer
}

var _ HistoryPort = (*HistoryAdapter)(nil)

// NewHistoryAdapter creates a new HistoryAdapter.
func NewHistoryAdapter(container mono.ServiceContainer) *HistoryAdapter {
	return &HistoryAdapter{container: container}
}

func call[T1 any, T2 any](ctx context.Context, a *HistoryAdapter, service string, req T1, resp *T2) error {
	if err := helper.CallRequestReplyService(
		ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// GroupMessages returns the last messages of a room in chronological order.
func (a *HistoryAdapter) GroupMessages(ctx context.Context, room string, limit int) ([]domain.GroupMessage, error) {
	req := GroupHistoryRequest{Room: room, Limit: limit}
	var resp GroupHistoryResponse
	if err := call(ctx, a, "group-history", &req, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Conversations returns the user's conversation list, most recent first.
func (a *HistoryAdapter) Conversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	req := ConversationsRequest{UserID: userID}
	var resp ConversationsResponse
	if err := call(ctx, a, "conversations", &req, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// DirectMessages returns a conversation page in chronological order.
func (a *HistoryAdapter) DirectMessages(ctx context.Context, conversationID string, limit int) ([]domain.DirectMessage, error) {
	req := DirectHistoryRequest{ConversationID: conversationID, Limit: limit}
	var resp DirectHistoryResponse
	if err := call(ctx, a, "direct-history", &req, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// MarkRead flags a conversation as read for the user.
func (a *HistoryAdapter) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	req := MarkReadRequest{ConversationID: conversationID, UserID: userID}
	var resp MarkReadResponse
	if err := call(ctx, a, "mark-read", &req, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

// DeleteGroupMessage removes a room message by id.
func (a *HistoryAdapter) DeleteGroupMessage(ctx context.Context, id string) error {
	req := DeleteMessageRequest{ID: id}
	var resp DeleteMessageResponse
	return call(ctx, a, "delete-message", &req, &resp)
}
