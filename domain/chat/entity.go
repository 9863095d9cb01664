// Package chat holds the wire-level entities shared by the messaging modules.
package chat

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultRoom is the room joined when a client does not name one.
const DefaultRoom = "general"

// MaxMessageLength is the maximum message text length after trimming,
// counted in characters, not bytes.
const MaxMessageLength = 1000

// DirectRoomPrefix namespaces the per-conversation delivery rooms so they
// never collide with public chat rooms.
const DirectRoomPrefix = "dm:"

// Validation errors. Invalid input is dropped silently at the event
// boundary; these errors never travel back over the socket.
var (
	ErrEmptyMessage       = errors.New("message text is empty")
	ErrMessageTooLong     = errors.New("message text exceeds maximum length")
	ErrMissingSender      = errors.New("sender display name is required")
	ErrMissingParticipant = errors.New("both participants need a user id")
)

// Sender describes who sent a group message. UserID and Avatar are optional;
// anonymous visitors chat with just a display name.
type Sender struct {
	Name   string `json:"name"`
	UserID string `json:"userId,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// UserRef identifies a direct-message participant.
type UserRef struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// GroupMessage is a message broadcast to a named room.
type GroupMessage struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

// DirectMessage is a private 1:1 message between two users.
type DirectMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	From           UserRef   `json:"from"`
	To             UserRef   `json:"to"`
	Text           string    `json:"text"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConversationID derives the canonical conversation identity for two users.
// The pair is sorted lexicographically so both participants compute the same
// id regardless of who initiates.
func ConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// DirectRoom returns the delivery room name for a conversation.
func DirectRoom(conversationID string) string {
	return DirectRoomPrefix + conversationID
}

// IsDirectRoom reports whether a room name belongs to a conversation.
func IsDirectRoom(room string) bool {
	return strings.HasPrefix(room, DirectRoomPrefix)
}

// ValidateText trims the message text and enforces the length limits.
// Returns the trimmed text on success.
func ValidateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return text, nil
}
