package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/events"
)

// Store is the persistence surface the history module reads through.
type Store interface {
	GroupStore
	DirectStore
}

// Module exposes history queries as request-reply services and keeps the
// room cache fresh by consuming stored-message events.
type Module struct {
	store   Store
	cache   ResultCache
	service *Service
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)

// NewModule creates a new history module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "history"
}

// SetStore injects the message store (called from main.go).
func (m *Module) SetStore(store Store) {
	m.store = store
}

// SetCache injects the result cache (called from main.go).
func (m *Module) SetCache(cache ResultCache) {
	m.cache = cache
}

// Start builds the service once its dependencies are in place.
func (m *Module) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("store dependency not set")
	}
	if m.cache == nil {
		return fmt.Errorf("cache dependency not set")
	}

	m.service = NewService(m.store, m.store, m.cache)
	log.Println("[history] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[history] Module stopped")
	return nil
}

// RegisterServices registers the history request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "group-history", json.Unmarshal, json.Marshal, m.handleGroupHistory,
	); err != nil {
		return fmt.Errorf("failed to register group-history service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "conversations", json.Unmarshal, json.Marshal, m.handleConversations,
	); err != nil {
		return fmt.Errorf("failed to register conversations service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "direct-history", json.Unmarshal, json.Marshal, m.handleDirectHistory,
	); err != nil {
		return fmt.Errorf("failed to register direct-history service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "mark-read", json.Unmarshal, json.Marshal, m.handleMarkRead,
	); err != nil {
		return fmt.Errorf("failed to register mark-read service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-message", json.Unmarshal, json.Marshal, m.handleDeleteMessage,
	); err != nil {
		return fmt.Errorf("failed to register delete-message service: %w", err)
	}

	log.Println("[history] Registered services: group-history, conversations, direct-history, mark-read, delete-message")
	return nil
}

// RegisterEventConsumers subscribes to stored-message events so cached room
// pages never outlive a new message by more than the consume lag.
func (m *Module) RegisterEventConsumers(reg mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		reg, events.GroupMessageStoredV1, m.handleGroupMessageStored, m,
	); err != nil {
		return fmt.Errorf("failed to register GroupMessageStored consumer: %w", err)
	}
	return nil
}

func (m *Module) handleGroupMessageStored(ctx context.Context, event events.GroupMessageStoredEvent, _ *mono.Msg) error {
	if err := m.service.InvalidateRoom(ctx, event.Message.Room); err != nil {
		log.Printf("[history] Failed to invalidate room cache for %s: %v", event.Message.Room, err)
	}
	return nil
}

func (m *Module) handleGroupHistory(ctx context.Context, req GroupHistoryRequest, _ *mono.Msg) (GroupHistoryResponse, error) {
	messages, err := m.service.GroupMessages(ctx, req.Room, req.Limit)
	if err != nil {
		return GroupHistoryResponse{}, err
	}
	room := req.Room
	if room == "" {
		room = domain.DefaultRoom
	}
	return GroupHistoryResponse{Room: room, Messages: messages}, nil
}

func (m *Module) handleConversations(ctx context.Context, req ConversationsRequest, _ *mono.Msg) (ConversationsResponse, error) {
	summaries, err := m.service.Conversations(ctx, req.UserID)
	if err != nil {
		return ConversationsResponse{}, err
	}
	return ConversationsResponse{Conversations: summaries}, nil
}

func (m *Module) handleDirectHistory(ctx context.Context, req DirectHistoryRequest, _ *mono.Msg) (DirectHistoryResponse, error) {
	messages, err := m.service.DirectMessages(ctx, req.ConversationID, req.Limit)
	if err != nil {
		return DirectHistoryResponse{}, err
	}
	return DirectHistoryResponse{ConversationID: req.ConversationID, Messages: messages}, nil
}

func (m *Module) handleMarkRead(ctx context.Context, req MarkReadRequest, _ *mono.Msg) (MarkReadResponse, error) {
	updated, err := m.service.MarkRead(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return MarkReadResponse{}, err
	}
	return MarkReadResponse{Updated: updated}, nil
}

func (m *Module) handleDeleteMessage(ctx context.Context, req DeleteMessageRequest, _ *mono.Msg) (DeleteMessageResponse, error) {
	if err := m.service.DeleteGroupMessage(ctx, req.ID); err != nil {
		return DeleteMessageResponse{}, err
	}
	return DeleteMessageResponse{Deleted: true}, nil
}
