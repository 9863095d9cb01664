package broadcast

import (
	"encoding/json"
	"log"

	domain "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/modules/registry"
)

// Outbound event names on the socket protocol.
const (
	EventNewMessage     = "new-message"
	EventOnlineCount    = "online-count"
	EventDirectMessage  = "dm-message"
	EventDMNotification = "dm-notification"
)

// Envelope is the frame written to sockets.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// deliverGroupMessage fans a stored room message out to every current room
// member, including the sender's own connection (echo-back).
func (m *Module) deliverGroupMessage(msg domain.GroupMessage) {
	m.sendToRoom(msg.Room, Envelope{Event: EventNewMessage, Data: msg})
}

// deliverPresence announces the new membership count to the room.
func (m *Module) deliverPresence(room string, count int) {
	m.sendToRoom(room, Envelope{Event: EventOnlineCount, Data: count})
}

// deliverDirectMessage fans the message out to the conversation room's
// subscribers, then pushes a separate notification to the recipient's bound
// connection if they are online. A recipient who is both subscribed and
// bound receives the payload twice; clients de-duplicate by message id.
func (m *Module) deliverDirectMessage(msg domain.DirectMessage) {
	m.sendToRoom(domain.DirectRoom(msg.ConversationID), Envelope{Event: EventDirectMessage, Data: msg})

	if client := m.registry.UserClient(msg.To.UserID); client != nil {
		m.sendToClient(client, Envelope{Event: EventDMNotification, Data: msg})
	}
}

// sendToRoom delivers an envelope to a snapshot of the room's members.
// Delivery is best effort: write failures are logged per client and the
// rest of the room is unaffected.
func (m *Module) sendToRoom(room string, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[broadcast] Failed to marshal %s event: %v", env.Event, err)
		return
	}

	for _, client := range m.registry.RoomMembers(room) {
		if err := client.Send(data); err != nil {
			log.Printf("[broadcast] Failed to send %s to client %s: %v", env.Event, client.ID, err)
		}
	}
}

func (m *Module) sendToClient(client *registry.Client, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[broadcast] Failed to marshal %s event: %v", env.Event, err)
		return
	}
	if err := client.Send(data); err != nil {
		log.Printf("[broadcast] Failed to send %s to client %s: %v", env.Event, client.ID, err)
	}
}
