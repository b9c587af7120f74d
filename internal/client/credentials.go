package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoCredentials is returned when no token is available.
var ErrNoCredentials = errors.New("no credentials: run the login command first")

// CredentialProvider supplies the bearer token for authenticated calls.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token, typically from the environment.
type StaticToken string

// Token returns the token or ErrNoCredentials when empty.
func (s StaticToken) Token(context.Context) (string, error) {
	tok := strings.TrimSpace(string(s))
	if tok == "" {
		return "", ErrNoCredentials
	}
	return tok, nil
}

// TokenFile reads the bearer token from a file on every call so that a
// later login is picked up without restarting.
type TokenFile struct {
	Path string
}

// Token reads and trims the token file.
func (f TokenFile) Token(context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoCredentials
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", ErrNoCredentials
	}
	return tok, nil
}

// Save writes the token with owner-only permissions, creating the parent
// directory if needed.
func (f TokenFile) Save(token string) error {
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// DefaultTokenPath returns ~/.config/meditrack/token, or a relative fallback
// when the user config dir cannot be determined.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".meditrack", "token")
	}
	return filepath.Join(dir, "meditrack", "token")
}
