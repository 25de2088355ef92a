package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakif/snippet-store/internal/model"
)

// Session is the durable client state: the session token plus the public
// profile returned at login. It survives restarts until logout or expiry.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// DefaultSessionPath returns the session file location in the user's home
// directory: <home>/.snippet-store/session.json.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("client: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".snippet-store", "session.json"), nil
}

// LoadSession loads the session from path. A missing file yields an empty
// session without error; a corrupt file is an error.
func LoadSession(path string) (*Session, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Session{}, nil
		}
		return nil, fmt.Errorf("client: reading session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("client: parsing session: %w", err)
	}
	return &s, nil
}

// SaveSession writes the session to path, creating the directory with
// owner-only permissions. The file itself is 0600: it holds a credential.
func SaveSession(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("client: creating session directory: %w", err)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("client: encoding session: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("client: writing session: %w", err)
	}
	return nil
}

// ClearSession removes the session file. A missing file is not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("client: removing session: %w", err)
	}
	return nil
}
