package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)
	userID := uuid.New()

	token, err := manager.Issue(userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	parsed, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed != userID {
		t.Errorf("Parse() = %v, want %v", parsed, userID)
	}
}

func TestTokenManager_ParseRejectsExpired(t *testing.T) {
	manager := NewTokenManager("test-secret", -time.Minute)
	token, err := manager.Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := manager.Parse(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenManager_ParseRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	manager := NewTokenManager("secret-b", time.Hour)
	if _, err := manager.Parse(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenManager_ParseRejectsGarbage(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := manager.Parse(token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}
