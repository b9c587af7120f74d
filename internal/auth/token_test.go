package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/model"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret-0123456789", time.Hour)
	user := &model.User{ID: "01HZZZZZZZZZZZZZZZZZZZZZZZ", Email: "a@x.com"}

	tok, err := m.Issue(user)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	id, err := m.Validate(tok)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if id.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", id.UserID, user.ID)
	}
	if id.Email != user.Email {
		t.Errorf("Email = %q, want %q", id.Email, user.Email)
	}
}

func TestTokenManager_Expired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret-0123456789", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := m.Issue(&model.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	m.now = time.Now
	if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenManager("secret-one-0123456789", time.Hour)
	validator := NewTokenManager("secret-two-0123456789", time.Hour)

	tok, err := issuer.Issue(&model.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := validator.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_Malformed(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("test-secret-0123456789", time.Hour)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"truncated", strings.Repeat("a", 40), ErrInvalidToken},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := m.Validate(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("Validate(%q) error = %v, want %v", tt.token, err, tt.want)
			}
		})
	}
}
