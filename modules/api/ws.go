package api

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/contrib/websocket"

	domain "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/modules/chat"
	"github.com/example/chat-backend/modules/direct"
	"github.com/example/chat-backend/modules/registry"
)

// inboundFrame is the envelope clients send on the socket.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// sendMessagePayload carries a room message from a client.
type sendMessagePayload struct {
	Room   string        `json:"room"`
	Text   string        `json:"text"`
	Sender domain.Sender `json:"sender"`
}

// dmSendPayload carries a direct message from a client.
type dmSendPayload struct {
	From domain.UserRef `json:"from"`
	To   domain.UserRef `json:"to"`
	Text string         `json:"text"`
}

// stringField decodes payloads that arrive either as a bare JSON string or
// as an object with a single named field.
func stringField(data json.RawMessage, field string) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return ""
	}
	if raw, ok := obj[field]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// wsSession dispatches the inbound events of one connection.
type wsSession struct {
	ctx     context.Context
	client  *registry.Client
	chat    *chat.Service
	direct  *direct.Service
	handler map[string]func(json.RawMessage)
}

func newWSSession(ctx context.Context, client *registry.Client, chatSvc *chat.Service, directSvc *direct.Service) *wsSession {
	s := &wsSession{ctx: ctx, client: client, chat: chatSvc, direct: directSvc}
	s.handler = map[string]func(json.RawMessage){
		"join-room":    s.onJoinRoom,
		"send-message": s.onSendMessage,
		"dm-register":  s.onDMRegister,
		"dm-join":      s.onDMJoin,
		"dm-send":      s.onDMSend,
	}
	return s
}

func (s *wsSession) dispatch(frame inboundFrame) {
	handle, ok := s.handler[frame.Event]
	if !ok {
		log.Printf("[api] Unknown event %q from %s", frame.Event, s.client.ID)
		return
	}
	handle(frame.Data)
}

func (s *wsSession) onJoinRoom(data json.RawMessage) {
	s.chat.Join(s.client.ID, stringField(data, "room"))
}

func (s *wsSession) onSendMessage(data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("[api] Malformed send-message payload from %s: %v", s.client.ID, err)
		return
	}
	// Validation failures drop the message; the sender is not notified.
	if err := s.chat.SendGroupMessage(s.ctx, payload.Room, payload.Text, payload.Sender); err != nil {
		log.Printf("[api] Dropped message from %s: %v", s.client.ID, err)
	}
}

func (s *wsSession) onDMRegister(data json.RawMessage) {
	s.direct.Register(s.client.ID, stringField(data, "userId"))
}

func (s *wsSession) onDMJoin(data json.RawMessage) {
	s.direct.JoinConversation(s.client.ID, stringField(data, "conversationId"))
}

func (s *wsSession) onDMSend(data json.RawMessage) {
	var payload dmSendPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("[api] Malformed dm-send payload from %s: %v", s.client.ID, err)
		return
	}
	if err := s.direct.SendDirectMessage(s.ctx, payload.From, payload.To, payload.Text); err != nil {
		log.Printf("[api] Dropped direct message from %s: %v", s.client.ID, err)
	}
}

// handleWebSocket runs one connection's lifecycle: register, greet, read
// loop, release. A malformed frame never ends the connection; a read error
// always releases every registry entry.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	client := m.registry.Connect(c)
	session := newWSSession(context.Background(), client, m.chat.Service(), m.direct.Service())

	defer func() {
		m.chat.Service().HandleDisconnect(client.ID)
		c.Close()
		log.Printf("[api] Connection closed: %s", client.ID)
	}()

	log.Printf("[api] Connection opened: %s", client.ID)

	welcome, _ := json.Marshal(map[string]any{
		"event": "connected",
		"data":  map[string]string{"connectionId": client.ID},
	})
	if err := client.Send(welcome); err != nil {
		return
	}

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Read error on %s: %v", client.ID, err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			log.Printf("[api] Malformed frame from %s: %v", client.ID, err)
			continue
		}
		session.dispatch(frame)
	}
}
