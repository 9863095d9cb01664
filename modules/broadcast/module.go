// Package broadcast consumes the stored-message and presence events and
// fans them out to live connections through the registry. Delivery targets
// are snapshots taken at consume time, after the persistence write, so the
// order observed by room members is persistence-commit order.
package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/chat-backend/events"
	"github.com/example/chat-backend/modules/registry"
)

// Module is the event consumer that bridges the event bus to sockets.
type Module struct {
	registry *registry.Registry
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new broadcast module.
func NewModule() *Module {
	return &Module{}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// SetRegistry injects the connection registry (called from main.go).
func (m *Module) SetRegistry(reg *registry.Registry) {
	m.registry = reg
}

// Start checks dependencies.
func (m *Module) Start(_ context.Context) error {
	if m.registry == nil {
		return fmt.Errorf("registry dependency not set")
	}
	log.Println("[broadcast] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[broadcast] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	healthy := m.registry != nil
	status := mono.HealthStatus{Healthy: healthy, Message: "operational"}
	if healthy {
		status.Details = map[string]any{
			"connected_clients": m.registry.ClientCount(),
		}
	}
	return status
}

// RegisterEventConsumers subscribes to the messaging events.
func (m *Module) RegisterEventConsumers(reg mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		reg, events.GroupMessageStoredV1, m.handleGroupMessageStored, m,
	); err != nil {
		return fmt.Errorf("failed to register GroupMessageStored consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		reg, events.PresenceChangedV1, m.handlePresenceChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register PresenceChanged consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		reg, events.DirectMessageStoredV1, m.handleDirectMessageStored, m,
	); err != nil {
		return fmt.Errorf("failed to register DirectMessageStored consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: GroupMessageStored, PresenceChanged, DirectMessageStored")
	return nil
}

func (m *Module) handleGroupMessageStored(_ context.Context, event events.GroupMessageStoredEvent, _ *mono.Msg) error {
	m.deliverGroupMessage(event.Message)
	return nil
}

func (m *Module) handlePresenceChanged(_ context.Context, event events.PresenceChangedEvent, _ *mono.Msg) error {
	m.deliverPresence(event.Room, event.Count)
	return nil
}

func (m *Module) handleDirectMessageStored(_ context.Context, event events.DirectMessageStoredEvent, _ *mono.Msg) error {
	m.deliverDirectMessage(event.Message)
	return nil
}
