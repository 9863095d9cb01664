package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/example/chat-backend/domain/chat"
)

// ErrNotFound is returned when a message does not exist.
var ErrNotFound = errors.New("message not found")

// GroupMessageRepo provides access to group message storage.
type GroupMessageRepo struct {
	db *gorm.DB
}

// NewGroupMessageRepo creates a new group message repository.
func NewGroupMessageRepo(db *gorm.DB) *GroupMessageRepo {
	return &GroupMessageRepo{db: db}
}

// Create saves a new group message.
func (r *GroupMessageRepo) Create(ctx context.Context, msg *domain.GroupMessage) error {
	if err := r.db.WithContext(ctx).Create(groupMessageFromDomain(msg)).Error; err != nil {
		return fmt.Errorf("failed to create group message: %w", err)
	}
	return nil
}

// ListByRoom returns the most recent messages for a room, newest first.
func (r *GroupMessageRepo) ListByRoom(ctx context.Context, room string, limit int) ([]domain.GroupMessage, error) {
	var rows []GroupMessage
	err := r.db.WithContext(ctx).
		Where("room = ?", room).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list group messages: %w", err)
	}

	messages := make([]domain.GroupMessage, 0, len(rows))
	for i := range rows {
		messages = append(messages, rows[i].toDomain())
	}
	return messages, nil
}

// Delete removes a group message by id.
func (r *GroupMessageRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&GroupMessage{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete group message: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DirectMessageRepo provides access to direct message storage.
type DirectMessageRepo struct {
	db *gorm.DB
}

// NewDirectMessageRepo creates a new direct message repository.
func NewDirectMessageRepo(db *gorm.DB) *DirectMessageRepo {
	return &DirectMessageRepo{db: db}
}

// Create saves a new direct message.
func (r *DirectMessageRepo) Create(ctx context.Context, msg *domain.DirectMessage) error {
	if err := r.db.WithContext(ctx).Create(directMessageFromDomain(msg)).Error; err != nil {
		return fmt.Errorf("failed to create direct message: %w", err)
	}
	return nil
}

// ListByConversation returns the most recent messages for a conversation,
// newest first.
func (r *DirectMessageRepo) ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.DirectMessage, error) {
	var rows []DirectMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list direct messages: %w", err)
	}

	messages := make([]domain.DirectMessage, 0, len(rows))
	for i := range rows {
		messages = append(messages, rows[i].toDomain())
	}
	return messages, nil
}

// ListForUser returns every direct message the user sent or received,
// newest first. The history service folds these into conversation summaries.
func (r *DirectMessageRepo) ListForUser(ctx context.Context, userID string) ([]domain.DirectMessage, error) {
	var rows []DirectMessage
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list direct messages for user: %w", err)
	}

	messages := make([]domain.DirectMessage, 0, len(rows))
	for i := range rows {
		messages = append(messages, rows[i].toDomain())
	}
	return messages, nil
}

// MarkRead flags every unread message addressed to the user in the
// conversation as read. Returns the number of rows updated; calling it again
// is a no-op.
func (r *DirectMessageRepo) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&DirectMessage{}).
		Where("conversation_id = ? AND to_user_id = ? AND read = ?", conversationID, userID, false).
		Update("read", true)
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return result.RowsAffected, nil
}
