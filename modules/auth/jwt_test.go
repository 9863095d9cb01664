package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/example/chat-backend/domain/user"
)

func testJWTManager(duration time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		SecretKey:     "test-secret",
		TokenDuration: duration,
		Issuer:        "chat-backend-test",
	})
}

func testUser() *user.User {
	return &user.User{
		ID:   "u1",
		Name: "Alice",
		Role: user.RoleUser,
	}
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	mgr := testJWTManager(time.Hour)

	token, err := mgr.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := mgr.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", claims.UserID)
	}
	if claims.Name != "Alice" {
		t.Errorf("Name = %q, want Alice", claims.Name)
	}
	if claims.Role != user.RoleUser {
		t.Errorf("Role = %q, want %q", claims.Role, user.RoleUser)
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	mgr := testJWTManager(-time.Minute)

	token, err := mgr.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := mgr.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Validate() error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := testJWTManager(time.Hour).Generate(testUser())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	other := NewJWTManager(JWTConfig{
		SecretKey:     "different-secret",
		TokenDuration: time.Hour,
		Issuer:        "chat-backend-test",
	})
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() with wrong secret error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_GarbageToken(t *testing.T) {
	mgr := testJWTManager(time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := mgr.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}
