// Package api is the HTTP surface: the /ws socket endpoint for live
// messaging and the REST collaborator routes for auth and history.
package api

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/chat-backend/modules/auth"
	"github.com/example/chat-backend/modules/chat"
	"github.com/example/chat-backend/modules/direct"
	"github.com/example/chat-backend/modules/history"
	"github.com/example/chat-backend/modules/registry"
)

// Module is the HTTP server module.
type Module struct {
	app  *fiber.App
	addr string

	registry *registry.Registry
	chat     *chat.Module
	direct   *direct.Module

	authContainer    mono.ServiceContainer
	historyContainer mono.ServiceContainer
	authPort         auth.AuthPort
	historyPort      history.HistoryPort
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new api module.
func NewModule() *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	return &Module{addr: ":" + port}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the modules whose services this module calls.
func (m *Module) Dependencies() []string {
	return []string{"auth", "history"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authContainer = container
		m.authPort = auth.NewAuthAdapter(container)
	case "history":
		m.historyContainer = container
		m.historyPort = history.NewHistoryAdapter(container)
	}
}

// SetRegistry injects the connection registry (called from main.go).
func (m *Module) SetRegistry(reg *registry.Registry) {
	m.registry = reg
}

// SetChat injects the room broadcast module (called from main.go).
func (m *Module) SetChat(c *chat.Module) {
	m.chat = c
}

// SetDirect injects the direct message module (called from main.go).
func (m *Module) SetDirect(d *direct.Module) {
	m.direct = d
}

// Start initializes the Fiber server.
func (m *Module) Start(_ context.Context) error {
	if m.registry == nil || m.chat == nil || m.direct == nil {
		return fmt.Errorf("registry, chat and direct dependencies must be set")
	}
	if m.authContainer == nil || m.historyContainer == nil {
		return fmt.Errorf("auth and history service containers not set")
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "chat-backend",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.addr)
	return nil
}

// Stop shuts down the server; in-flight requests get the shutdown context.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	healthy := m.app != nil
	status := mono.HealthStatus{Healthy: healthy, Message: "operational"}
	if healthy && m.registry != nil {
		status.Details = map[string]any{
			"addr":              m.addr,
			"connected_clients": m.registry.ClientCount(),
		}
	}
	return status
}

// setupRoutes configures the socket endpoint and the REST routes.
func (m *Module) setupRoutes() {
	handlers := NewHandlers(m.authContainer, m.authPort, m.historyPort)

	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":            "healthy",
			"service":           "chat-backend",
			"connected_clients": m.registry.ClientCount(),
		})
	})

	// WebSocket endpoint.
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	api := m.app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)
	authRoutes.Get("/me", AuthMiddleware(m.authPort), handlers.Me)

	chatRoutes := api.Group("/chat")
	chatRoutes.Get("/messages", handlers.GroupMessages)
	chatRoutes.Delete("/messages/:id", AuthMiddleware(m.authPort), AdminOnly(), handlers.DeleteGroupMessage)

	directRoutes := api.Group("/direct", AuthMiddleware(m.authPort))
	directRoutes.Get("/conversations", handlers.Conversations)
	directRoutes.Get("/messages/:conversationId", handlers.DirectMessages)
	directRoutes.Patch("/read/:conversationId", handlers.MarkRead)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
