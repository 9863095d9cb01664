package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/chat-backend/modules/api"
	"github.com/example/chat-backend/modules/auth"
	"github.com/example/chat-backend/modules/broadcast"
	"github.com/example/chat-backend/modules/cache"
	"github.com/example/chat-backend/modules/chat"
	"github.com/example/chat-backend/modules/direct"
	"github.com/example/chat-backend/modules/history"
	"github.com/example/chat-backend/modules/registry"
	"github.com/example/chat-backend/modules/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Chat Backend - Rooms, Direct Messages, History ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	storeModule := store.NewModule()
	registryModule := registry.NewModule()
	cacheModule := cache.NewModule()
	authModule := auth.NewModule()
	chatModule := chat.NewModule()
	directModule := direct.NewModule()
	historyModule := history.NewModule()
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule()

	// Manual wiring for collaborators not exposed via ServiceContainer.
	// Repositories and the registry exist before any module's Start runs;
	// the store's database handle is opened in its Start, which runs first.
	reg := registryModule.Registry()
	authModule.SetDBProvider(storeModule)
	chatModule.SetRegistry(reg)
	chatModule.SetStore(storeModule)
	directModule.SetRegistry(reg)
	directModule.SetStore(storeModule)
	historyModule.SetStore(storeModule)
	historyModule.SetCache(cacheModule.Cache())
	broadcastModule.SetRegistry(reg)
	apiModule.SetRegistry(reg)
	apiModule.SetChat(chatModule)
	apiModule.SetDirect(directModule)

	// Registration order is start order: storage and registry first, the
	// HTTP surface last.
	app.Register(storeModule)
	app.Register(registryModule)
	app.Register(cacheModule)
	app.Register(authModule)
	app.Register(chatModule)
	app.Register(directModule)
	app.Register(historyModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                              - Health check")
	log.Println("  POST   /api/auth/register                   - Create an account")
	log.Println("  POST   /api/auth/login                      - Log in")
	log.Println("  GET    /api/auth/me                         - Current account (auth)")
	log.Println("  GET    /api/chat/messages?room=&limit=      - Room history")
	log.Println("  DELETE /api/chat/messages/:id               - Delete a message (admin)")
	log.Println("  GET    /api/direct/conversations            - Conversation list (auth)")
	log.Println("  GET    /api/direct/messages/:conversationId - Conversation history (auth)")
	log.Println("  PATCH  /api/direct/read/:conversationId     - Mark read (auth)")
	log.Println("")
	log.Printf("WebSocket Endpoint: ws://localhost:%s/ws", port)
	log.Println("  Inbound events:  join-room, send-message, dm-register, dm-join, dm-send")
	log.Println("  Outbound events: new-message, online-count, dm-message, dm-notification")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
