// Package events defines the versioned event contracts published on the
// application event bus. The live-delivery path is event driven: the chat and
// direct modules persist first, then publish, and the broadcast module fans
// the stored payloads out to connected sockets.
package events

import (
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/chat-backend/domain/chat"
)

// GroupMessageStoredEvent carries a group message after it has been
// persisted. The message id and timestamp are the stored values, so event
// order downstream follows persistence-commit order.
type GroupMessageStoredEvent struct {
	Message domain.GroupMessage `json:"message"`
}

// PresenceChangedEvent is published whenever a room's membership count
// changes (join or disconnect).
type PresenceChangedEvent struct {
	Room  string `json:"room"`
	Count int    `json:"count"`
}

// DirectMessageStoredEvent carries a persisted direct message.
type DirectMessageStoredEvent struct {
	Message domain.DirectMessage `json:"message"`
}

// Event definitions for the messaging domain.
var (
	GroupMessageStoredV1 = helper.EventDefinition[GroupMessageStoredEvent](
		"chat",
		"GroupMessageStored",
		"v1",
	)

	PresenceChangedV1 = helper.EventDefinition[PresenceChangedEvent](
		"chat",
		"PresenceChanged",
		"v1",
	)

	DirectMessageStoredV1 = helper.EventDefinition[DirectMessageStoredEvent](
		"direct",
		"DirectMessageStored",
		"v1",
	)
)
