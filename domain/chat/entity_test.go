package chat

import (
	"strings"
	"testing"
)

func TestConversationID(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want string
	}{
		{name: "already sorted", a: "u1", b: "u2", want: "u1_u2"},
		{name: "reversed", a: "u2", b: "u1", want: "u1_u2"},
		{name: "same user", a: "u1", b: "u1", want: "u1_u1"},
		{name: "object ids", a: "64f1b2", b: "64a0c9", want: "64a0c9_64f1b2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConversationID(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("ConversationID(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestConversationID_OrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"u1", "u2"},
		{"", "x"},
		{"zz", "aa"},
	}
	for _, p := range pairs {
		if ConversationID(p[0], p[1]) != ConversationID(p[1], p[0]) {
			t.Errorf("ConversationID not symmetric for (%q, %q)", p[0], p[1])
		}
	}
}

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{name: "valid", text: "hello", want: "hello"},
		{name: "trims surrounding whitespace", text: "  hi there  ", want: "hi there"},
		{name: "empty", text: "", wantErr: ErrEmptyMessage},
		{name: "whitespace only", text: "   \t\n ", wantErr: ErrEmptyMessage},
		{name: "exactly max length", text: strings.Repeat("a", MaxMessageLength), want: strings.Repeat("a", MaxMessageLength)},
		{name: "over max length", text: strings.Repeat("a", MaxMessageLength+1), wantErr: ErrMessageTooLong},
		{name: "multibyte under limit", text: strings.Repeat("é", 600), want: strings.Repeat("é", 600)},
		{name: "multibyte exactly max length", text: strings.Repeat("日", MaxMessageLength), want: strings.Repeat("日", MaxMessageLength)},
		{name: "multibyte over max length", text: strings.Repeat("日", MaxMessageLength+1), wantErr: ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateText(tt.text)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("ValidateText() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateText() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirectRoom(t *testing.T) {
	room := DirectRoom(ConversationID("u2", "u1"))
	if room != "dm:u1_u2" {
		t.Errorf("DirectRoom() = %q, want %q", room, "dm:u1_u2")
	}
	if !IsDirectRoom(room) {
		t.Error("IsDirectRoom() = false for a conversation room")
	}
	if IsDirectRoom("general") {
		t.Error("IsDirectRoom() = true for a public room")
	}
}
