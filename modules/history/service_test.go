package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/example/chat-backend/domain/chat"
)

// fakeGroupStore holds messages in insertion (chronological) order and
// serves pages newest first, the way the repository does.
type fakeGroupStore struct {
	messages []domain.GroupMessage
	queries  int
}

func (f *fakeGroupStore) GroupMessagesByRoom(_ context.Context, room string, limit int) ([]domain.GroupMessage, error) {
	f.queries++
	var out []domain.GroupMessage
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].Room == room {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeGroupStore) DeleteGroupMessage(_ context.Context, id string) error {
	for i, msg := range f.messages {
		if msg.ID == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return errors.New("record not found")
}

type fakeDirectStore struct {
	messages []domain.DirectMessage
}

func (f *fakeDirectStore) DirectMessagesByConversation(_ context.Context, conversationID string, limit int) ([]domain.DirectMessage, error) {
	var out []domain.DirectMessage
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].ConversationID == conversationID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeDirectStore) DirectMessagesForUser(_ context.Context, userID string) ([]domain.DirectMessage, error) {
	var out []domain.DirectMessage
	for i := len(f.messages) - 1; i >= 0; i-- {
		msg := f.messages[i]
		if msg.From.UserID == userID || msg.To.UserID == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeDirectStore) MarkConversationRead(_ context.Context, conversationID, userID string) (int64, error) {
	var updated int64
	for i := range f.messages {
		msg := &f.messages[i]
		if msg.ConversationID == conversationID && msg.To.UserID == userID && !msg.Read {
			msg.Read = true
			updated++
		}
	}
	return updated, nil
}

// fakeCache is an in-memory ResultCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = data
	return nil
}

func (f *fakeCache) DeletePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
		}
	}
	return nil
}

func groupMsg(id, room, text string, at time.Time) domain.GroupMessage {
	return domain.GroupMessage{
		ID:        id,
		Room:      room,
		Text:      text,
		Sender:    domain.Sender{Name: "tester"},
		CreatedAt: at,
	}
}

func directMsg(id, from, to, text string, read bool, at time.Time) domain.DirectMessage {
	return domain.DirectMessage{
		ID:             id,
		ConversationID: domain.ConversationID(from, to),
		From:           domain.UserRef{UserID: from, Name: strings.ToUpper(from)},
		To:             domain.UserRef{UserID: to, Name: strings.ToUpper(to)},
		Text:           text,
		Read:           read,
		CreatedAt:      at,
	}
}

func TestService_GroupMessages(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	groups := &fakeGroupStore{}
	for i := 1; i <= 5; i++ {
		groups.messages = append(groups.messages,
			groupMsg(fmt.Sprintf("m%d", i), "general", fmt.Sprintf("msg %d", i), base.Add(time.Duration(i)*time.Second)))
	}
	svc := NewService(groups, &fakeDirectStore{}, newFakeCache())

	t.Run("returns last messages in chronological order", func(t *testing.T) {
		messages, err := svc.GroupMessages(ctx, "general", 3)
		if err != nil {
			t.Fatalf("GroupMessages() error = %v", err)
		}
		if len(messages) != 3 {
			t.Fatalf("got %d messages, want 3", len(messages))
		}
		want := []string{"m3", "m4", "m5"}
		for i, id := range want {
			if messages[i].ID != id {
				t.Errorf("messages[%d].ID = %q, want %q", i, messages[i].ID, id)
			}
		}
	})

	t.Run("empty room defaults", func(t *testing.T) {
		messages, err := svc.GroupMessages(ctx, "", DefaultLimit)
		if err != nil {
			t.Fatalf("GroupMessages() error = %v", err)
		}
		if len(messages) != 5 {
			t.Errorf("got %d messages from default room, want 5", len(messages))
		}
	})

	t.Run("limit is clamped", func(t *testing.T) {
		if _, err := svc.GroupMessages(ctx, "general", -1); err != nil {
			t.Fatalf("GroupMessages() error = %v", err)
		}
		if _, err := svc.GroupMessages(ctx, "general", MaxLimit+1000); err != nil {
			t.Fatalf("GroupMessages() error = %v", err)
		}
	})
}

func TestService_GroupMessagesCacheAside(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	groups := &fakeGroupStore{messages: []domain.GroupMessage{
		groupMsg("m1", "general", "hello", base),
	}}
	svc := NewService(groups, &fakeDirectStore{}, newFakeCache())

	if _, err := svc.GroupMessages(ctx, "general", 50); err != nil {
		t.Fatalf("GroupMessages() error = %v", err)
	}
	if groups.queries != 1 {
		t.Fatalf("queries after first read = %d, want 1", groups.queries)
	}

	// Second read with the same key is served from the cache.
	if _, err := svc.GroupMessages(ctx, "general", 50); err != nil {
		t.Fatalf("GroupMessages() error = %v", err)
	}
	if groups.queries != 1 {
		t.Errorf("queries after cached read = %d, want 1", groups.queries)
	}

	// Invalidation forces the next read back to the store.
	if err := svc.InvalidateRoom(ctx, "general"); err != nil {
		t.Fatalf("InvalidateRoom() error = %v", err)
	}
	if _, err := svc.GroupMessages(ctx, "general", 50); err != nil {
		t.Fatalf("GroupMessages() error = %v", err)
	}
	if groups.queries != 2 {
		t.Errorf("queries after invalidation = %d, want 2", groups.queries)
	}
}

func TestService_Conversations(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	directs := &fakeDirectStore{messages: []domain.DirectMessage{
		directMsg("d1", "u2", "u1", "hey", true, base),
		directMsg("d2", "u2", "u1", "you there?", false, base.Add(time.Second)),
		directMsg("d3", "u1", "u2", "yes", false, base.Add(2*time.Second)),
		directMsg("d4", "u3", "u1", "hello", false, base.Add(3*time.Second)),
	}}
	svc := NewService(&fakeGroupStore{}, directs, newFakeCache())

	summaries, err := svc.Conversations(ctx, "u1")
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d conversations, want 2", len(summaries))
	}

	// Most recently active conversation first.
	if summaries[0].ConversationID != "u1_u3" {
		t.Errorf("summaries[0] = %q, want u1_u3", summaries[0].ConversationID)
	}
	if summaries[0].LastMessage.ID != "d4" || summaries[0].UnreadCount != 1 {
		t.Errorf("u1_u3 summary = last %q unread %d, want d4/1",
			summaries[0].LastMessage.ID, summaries[0].UnreadCount)
	}

	// d2 is unread and addressed to u1; d3 was sent by u1 and d1 is read,
	// neither counts.
	if summaries[1].ConversationID != "u1_u2" {
		t.Errorf("summaries[1] = %q, want u1_u2", summaries[1].ConversationID)
	}
	if summaries[1].LastMessage.ID != "d3" || summaries[1].UnreadCount != 1 {
		t.Errorf("u1_u2 summary = last %q unread %d, want d3/1",
			summaries[1].LastMessage.ID, summaries[1].UnreadCount)
	}

	if _, err := svc.Conversations(ctx, ""); err == nil {
		t.Error("Conversations() with empty user id should fail")
	}
}

func TestService_DirectMessages(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	directs := &fakeDirectStore{messages: []domain.DirectMessage{
		directMsg("d1", "u1", "u2", "first", false, base),
		directMsg("d2", "u2", "u1", "second", false, base.Add(time.Second)),
		directMsg("d3", "u1", "u2", "third", false, base.Add(2*time.Second)),
	}}
	svc := NewService(&fakeGroupStore{}, directs, newFakeCache())

	messages, err := svc.DirectMessages(ctx, "u1_u2", 50)
	if err != nil {
		t.Fatalf("DirectMessages() error = %v", err)
	}
	want := []string{"d1", "d2", "d3"}
	if len(messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(messages), len(want))
	}
	for i, id := range want {
		if messages[i].ID != id {
			t.Errorf("messages[%d].ID = %q, want %q", i, messages[i].ID, id)
		}
	}

	if _, err := svc.DirectMessages(ctx, "", 50); err == nil {
		t.Error("DirectMessages() with empty conversation id should fail")
	}
}

func TestService_MarkRead(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	directs := &fakeDirectStore{messages: []domain.DirectMessage{
		directMsg("d1", "u2", "u1", "one", false, base),
		directMsg("d2", "u2", "u1", "two", false, base.Add(time.Second)),
		directMsg("d3", "u1", "u2", "reply", false, base.Add(2*time.Second)),
	}}
	svc := NewService(&fakeGroupStore{}, directs, newFakeCache())

	updated, err := svc.MarkRead(ctx, "u1_u2", "u1")
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	// Repeating the call finds nothing left to update.
	updated, err = svc.MarkRead(ctx, "u1_u2", "u1")
	if err != nil {
		t.Fatalf("MarkRead() second call error = %v", err)
	}
	if updated != 0 {
		t.Errorf("second MarkRead updated = %d, want 0", updated)
	}

	if _, err := svc.MarkRead(ctx, "", "u1"); err == nil {
		t.Error("MarkRead() with empty conversation id should fail")
	}
	if _, err := svc.MarkRead(ctx, "u1_u2", ""); err == nil {
		t.Error("MarkRead() with empty user id should fail")
	}
}

func TestService_DeleteGroupMessage(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	groups := &fakeGroupStore{messages: []domain.GroupMessage{
		groupMsg("m1", "general", "hello", base),
	}}
	cache := newFakeCache()
	svc := NewService(groups, &fakeDirectStore{}, cache)

	// Warm the cache, then delete.
	if _, err := svc.GroupMessages(ctx, "general", 50); err != nil {
		t.Fatalf("GroupMessages() error = %v", err)
	}

	if err := svc.DeleteGroupMessage(ctx, "m1"); err != nil {
		t.Fatalf("DeleteGroupMessage() error = %v", err)
	}
	if len(groups.messages) != 0 {
		t.Error("message should be removed from the store")
	}
	if len(cache.entries) != 0 {
		t.Error("cached room pages should be invalidated after delete")
	}

	if err := svc.DeleteGroupMessage(ctx, "missing"); err == nil {
		t.Error("deleting a missing message should fail")
	}
}
