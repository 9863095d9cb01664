package direct

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"

	domain "github.com/example/chat-backend/domain/chat"
	"github.com/example/chat-backend/events"
	"github.com/example/chat-backend/modules/registry"
)

// Module wires the direct message router into the application.
type Module struct {
	registry *registry.Registry
	store    MessageStore
	service  *Service
	eventBus mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventBusAwareModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)

// NewModule creates a new direct message module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "direct"
}

// SetRegistry injects the connection registry (called from main.go).
func (m *Module) SetRegistry(reg *registry.Registry) {
	m.registry = reg
}

// SetStore injects the message store (called from main.go).
func (m *Module) SetStore(store MessageStore) {
	m.store = store
}

// SetEventBus receives the event bus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.DirectMessageStoredV1.ToBase(),
	}
}

// Start builds the service once its dependencies are in place.
func (m *Module) Start(_ context.Context) error {
	if m.registry == nil {
		return fmt.Errorf("registry dependency not set")
	}
	if m.store == nil {
		return fmt.Errorf("store dependency not set")
	}

	m.service = NewService(m.registry, m.store, m)
	log.Println("[direct] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[direct] Module stopped")
	return nil
}

// Service returns the direct message service. Valid after Start.
func (m *Module) Service() *Service {
	return m.service
}

// DirectMessageStored publishes a stored direct message for fan-out.
func (m *Module) DirectMessageStored(msg domain.DirectMessage) {
	event := events.DirectMessageStoredEvent{Message: msg}
	if err := events.DirectMessageStoredV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[direct] Failed to publish DirectMessageStored: %v", err)
	}
}
