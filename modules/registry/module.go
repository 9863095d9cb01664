package registry

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// Module gives the registry an explicit lifecycle: created at server start,
// torn down (closing every live socket) at shutdown.
type Module struct {
	registry *Registry
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new registry module.
func NewModule() *Module {
	return &Module{registry: New()}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "registry"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[registry] Module started")
	return nil
}

// Stop closes all live connections.
func (m *Module) Stop(_ context.Context) error {
	count := m.registry.ClientCount()
	m.registry.CloseAll()
	log.Printf("[registry] Module stopped - %d clients were connected", count)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.registry.ClientCount(),
		},
	}
}

// Registry returns the connection registry for injection into the chat,
// direct, broadcast, and api modules.
func (m *Module) Registry() *Registry {
	return m.registry
}
