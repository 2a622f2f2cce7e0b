package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yukikurage/taskflow/internal/backend"
	"gopkg.in/yaml.v3"
)

type sessionFile struct {
	path string
}

func sessionPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "taskflow", "session.yaml"), nil
}

// Load returns nil when no session was saved.
func (s *sessionFile) Load() (*backend.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session backend.Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", s.path, err)
	}
	return &session, nil
}

func (s *sessionFile) Save(session *backend.Session) error {
	data, err := yaml.Marshal(session)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *sessionFile) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
