package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/example/chat-backend/domain/chat"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&GroupMessage{}, &DirectMessage{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func groupMsg(room, text string, at time.Time) *domain.GroupMessage {
	return &domain.GroupMessage{
		ID:        uuid.New().String(),
		Room:      room,
		Text:      text,
		Sender:    domain.Sender{Name: "tester", UserID: "u1"},
		CreatedAt: at,
	}
}

func directMsg(from, to domain.UserRef, text string, at time.Time) *domain.DirectMessage {
	return &domain.DirectMessage{
		ID:             uuid.New().String(),
		ConversationID: domain.ConversationID(from.UserID, to.UserID),
		From:           from,
		To:             to,
		Text:           text,
		CreatedAt:      at,
	}
}

func TestGroupMessageRepo_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewGroupMessageRepo(setupTestDB(t))

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		msg := groupMsg("general", "msg", base.Add(time.Duration(i)*time.Second))
		msg.Text = msg.Text + string(rune('0'+i))
		if err := repo.Create(ctx, msg); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if err := repo.Create(ctx, groupMsg("random", "elsewhere", base)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("newest first", func(t *testing.T) {
		msgs, err := repo.ListByRoom(ctx, "general", 50)
		if err != nil {
			t.Fatalf("ListByRoom() error = %v", err)
		}
		if len(msgs) != 5 {
			t.Fatalf("expected 5 messages, got %d", len(msgs))
		}
		if msgs[0].Text != "msg4" {
			t.Errorf("expected newest message first, got %q", msgs[0].Text)
		}
		for i := 1; i < len(msgs); i++ {
			if msgs[i].CreatedAt.After(msgs[i-1].CreatedAt) {
				t.Errorf("messages not in descending order at index %d", i)
			}
		}
	})

	t.Run("limit applies", func(t *testing.T) {
		msgs, err := repo.ListByRoom(ctx, "general", 2)
		if err != nil {
			t.Fatalf("ListByRoom() error = %v", err)
		}
		if len(msgs) != 2 {
			t.Errorf("expected 2 messages, got %d", len(msgs))
		}
	})

	t.Run("room isolation", func(t *testing.T) {
		msgs, err := repo.ListByRoom(ctx, "random", 50)
		if err != nil {
			t.Fatalf("ListByRoom() error = %v", err)
		}
		if len(msgs) != 1 {
			t.Errorf("expected 1 message in random, got %d", len(msgs))
		}
	})

	t.Run("sender round trip", func(t *testing.T) {
		msgs, err := repo.ListByRoom(ctx, "general", 1)
		if err != nil {
			t.Fatalf("ListByRoom() error = %v", err)
		}
		if msgs[0].Sender.Name != "tester" || msgs[0].Sender.UserID != "u1" {
			t.Errorf("sender not preserved: %+v", msgs[0].Sender)
		}
	})
}

func TestGroupMessageRepo_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewGroupMessageRepo(setupTestDB(t))

	msg := groupMsg("general", "to delete", time.Now().UTC())
	if err := repo.Create(ctx, msg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, msg.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	msgs, err := repo.ListByRoom(ctx, "general", 50)
	if err != nil {
		t.Fatalf("ListByRoom() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected 0 messages after delete, got %d", len(msgs))
	}

	if err := repo.Delete(ctx, msg.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDirectMessageRepo_ListByConversation(t *testing.T) {
	ctx := context.Background()
	repo := NewDirectMessageRepo(setupTestDB(t))

	alice := domain.UserRef{UserID: "u1", Name: "Alice"}
	bob := domain.UserRef{UserID: "u2", Name: "Bob"}
	base := time.Now().UTC().Truncate(time.Second)

	if err := repo.Create(ctx, directMsg(alice, bob, "first", base)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, directMsg(bob, alice, "second", base.Add(time.Second))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	msgs, err := repo.ListByConversation(ctx, "u1_u2", 50)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "second" {
		t.Errorf("expected newest first, got %q", msgs[0].Text)
	}
	if msgs[0].Read {
		t.Error("new message should be unread")
	}
}

func TestDirectMessageRepo_MarkRead(t *testing.T) {
	ctx := context.Background()
	repo := NewDirectMessageRepo(setupTestDB(t))

	alice := domain.UserRef{UserID: "u1", Name: "Alice"}
	bob := domain.UserRef{UserID: "u2", Name: "Bob"}
	base := time.Now().UTC()

	// Two messages to bob, one from bob.
	if err := repo.Create(ctx, directMsg(alice, bob, "hi", base)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, directMsg(alice, bob, "you there?", base.Add(time.Second))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, directMsg(bob, alice, "yes", base.Add(2*time.Second))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := repo.MarkRead(ctx, "u1_u2", "u2")
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if updated != 2 {
		t.Errorf("expected 2 rows updated, got %d", updated)
	}

	// Idempotent: a second call updates nothing.
	updated, err = repo.MarkRead(ctx, "u1_u2", "u2")
	if err != nil {
		t.Fatalf("MarkRead() second call error = %v", err)
	}
	if updated != 0 {
		t.Errorf("expected 0 rows updated on repeat, got %d", updated)
	}

	// Alice's incoming message is untouched.
	msgs, err := repo.ListByConversation(ctx, "u1_u2", 50)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	for _, m := range msgs {
		if m.To.UserID == "u2" && !m.Read {
			t.Errorf("message %q to u2 still unread", m.Text)
		}
		if m.To.UserID == "u1" && m.Read {
			t.Errorf("message %q to u1 should remain unread", m.Text)
		}
	}
}

func TestDirectMessageRepo_ListForUser(t *testing.T) {
	ctx := context.Background()
	repo := NewDirectMessageRepo(setupTestDB(t))

	alice := domain.UserRef{UserID: "u1", Name: "Alice"}
	bob := domain.UserRef{UserID: "u2", Name: "Bob"}
	carol := domain.UserRef{UserID: "u3", Name: "Carol"}
	base := time.Now().UTC().Truncate(time.Second)

	if err := repo.Create(ctx, directMsg(alice, bob, "a->b", base)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, directMsg(carol, alice, "c->a", base.Add(time.Second))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, directMsg(bob, carol, "b->c", base.Add(2*time.Second))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	msgs, err := repo.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages involving u1, got %d", len(msgs))
	}
	if msgs[0].Text != "c->a" {
		t.Errorf("expected newest first, got %q", msgs[0].Text)
	}
}
