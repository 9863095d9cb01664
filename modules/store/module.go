// Package store owns the message database. It is the document-store
// collaborator behind the live messaging core: the chat and direct modules
// write through it, the history module reads through it.
package store

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/example/chat-backend/domain/chat"
)

// Module manages the SQLite database connection and repositories.
type Module struct {
	db      *gorm.DB
	groups  *GroupMessageRepo
	directs *DirectMessageRepo
	dbPath  string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new store module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "chat.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// Start opens the database and runs migrations.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[store] Connecting to SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&GroupMessage{}, &DirectMessage{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.groups = NewGroupMessageRepo(m.db)
	m.directs = NewDirectMessageRepo(m.db)

	log.Println("[store] Module started successfully")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[store] Database connection closed")
	return nil
}

// Health performs a database ping.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// DB exposes the underlying connection for modules that manage their own
// tables (the auth module migrates its user table on this handle).
func (m *Module) DB() *gorm.DB {
	return m.db
}

// The delegating methods below let main.go hand the store to the other
// modules before Start has opened the database. The repositories exist only
// after Start; all callers run strictly after the application has started.

// CreateGroupMessage saves a group message.
func (m *Module) CreateGroupMessage(ctx context.Context, msg *domain.GroupMessage) error {
	return m.groups.Create(ctx, msg)
}

// GroupMessagesByRoom returns the most recent messages for a room, newest first.
func (m *Module) GroupMessagesByRoom(ctx context.Context, room string, limit int) ([]domain.GroupMessage, error) {
	return m.groups.ListByRoom(ctx, room, limit)
}

// DeleteGroupMessage removes a group message by id.
func (m *Module) DeleteGroupMessage(ctx context.Context, id string) error {
	return m.groups.Delete(ctx, id)
}

// CreateDirectMessage saves a direct message.
func (m *Module) CreateDirectMessage(ctx context.Context, msg *domain.DirectMessage) error {
	return m.directs.Create(ctx, msg)
}

// DirectMessagesByConversation returns the most recent messages for a
// conversation, newest first.
func (m *Module) DirectMessagesByConversation(ctx context.Context, conversationID string, limit int) ([]domain.DirectMessage, error) {
	return m.directs.ListByConversation(ctx, conversationID, limit)
}

// DirectMessagesForUser returns every direct message involving the user,
// newest first.
func (m *Module) DirectMessagesForUser(ctx context.Context, userID string) ([]domain.DirectMessage, error) {
	return m.directs.ListForUser(ctx, userID)
}

// MarkConversationRead flags the user's unread messages in a conversation as read.
func (m *Module) MarkConversationRead(ctx context.Context, conversationID, userID string) (int64, error) {
	return m.directs.MarkRead(ctx, conversationID, userID)
}
