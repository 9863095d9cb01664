package store

import (
	"time"

	domain "github.com/example/chat-backend/domain/chat"
)

// GroupMessage is the persistence model for room chat messages.
type GroupMessage struct {
	ID           string    `gorm:"primarykey;size:36"`
	Room         string    `gorm:"size:100;not null;default:general;index:idx_group_room_created,priority:1"`
	Text         string    `gorm:"size:1000;not null"`
	SenderName   string    `gorm:"size:100;not null"`
	SenderUserID string    `gorm:"size:36"`
	SenderAvatar string    `gorm:"size:255"`
	CreatedAt    time.Time `gorm:"index:idx_group_room_created,priority:2,sort:desc"`
}

// TableName returns the table name for the GroupMessage model.
func (GroupMessage) TableName() string {
	return "group_messages"
}

// DirectMessage is the persistence model for private 1:1 messages.
type DirectMessage struct {
	ID             string    `gorm:"primarykey;size:36"`
	ConversationID string    `gorm:"size:100;not null;index:idx_dm_conv_created,priority:1"`
	FromUserID     string    `gorm:"size:36;not null;index"`
	FromName       string    `gorm:"size:100;not null"`
	ToUserID       string    `gorm:"size:36;not null;index"`
	ToName         string    `gorm:"size:100;not null"`
	Text           string    `gorm:"size:1000;not null"`
	Read           bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"index:idx_dm_conv_created,priority:2,sort:desc"`
}

// TableName returns the table name for the DirectMessage model.
func (DirectMessage) TableName() string {
	return "direct_messages"
}

func groupMessageFromDomain(m *domain.GroupMessage) *GroupMessage {
	return &GroupMessage{
		ID:           m.ID,
		Room:         m.Room,
		Text:         m.Text,
		SenderName:   m.Sender.Name,
		SenderUserID: m.Sender.UserID,
		SenderAvatar: m.Sender.Avatar,
		CreatedAt:    m.CreatedAt,
	}
}

func (m *GroupMessage) toDomain() domain.GroupMessage {
	return domain.GroupMessage{
		ID:   m.ID,
		Room: m.Room,
		Text: m.Text,
		Sender: domain.Sender{
			Name:   m.SenderName,
			UserID: m.SenderUserID,
			Avatar: m.SenderAvatar,
		},
		CreatedAt: m.CreatedAt,
	}
}

func directMessageFromDomain(m *domain.DirectMessage) *DirectMessage {
	return &DirectMessage{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		FromUserID:     m.From.UserID,
		FromName:       m.From.Name,
		ToUserID:       m.To.UserID,
		ToName:         m.To.Name,
		Text:           m.Text,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}

func (m *DirectMessage) toDomain() domain.DirectMessage {
	return domain.DirectMessage{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		From:           domain.UserRef{UserID: m.FromUserID, Name: m.FromName},
		To:             domain.UserRef{UserID: m.ToUserID, Name: m.ToName},
		Text:           m.Text,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}
