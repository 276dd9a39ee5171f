package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"interval_reminder_bot/internal/domain/session"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const stateFileName = "state.yaml"

type yamlState struct {
	Entries map[string]string `yaml:"entries"`
}

// YAMLStateStore keeps state entries in one YAML file.
// Writes go to a temp file that is renamed over the target, so a reader in
// another process sees either the previous file or the new one.
type YAMLStateStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewYAMLStateStore stores state at path on fs. An empty path resolves to
// <user config dir>/<appName>/state.yaml.
func NewYAMLStateStore(fs afero.Fs, appName, path string) (*YAMLStateStore, error) {
	if path == "" {
		resolved, err := resolveStatePath(appName)
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	return &YAMLStateStore{fs: fs, path: path}, nil
}

// Path returns the file the store writes to.
func (s *YAMLStateStore) Path() string {
	return s.path
}

func (s *YAMLStateStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return nil, err
	}
	value, ok := state.Entries[key]
	if !ok {
		return nil, session.ErrStateNotFound
	}
	return []byte(value), nil
}

func (s *YAMLStateStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	state.Entries[key] = string(value)
	return s.save(state)
}

func (s *YAMLStateStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := state.Entries[key]; !ok {
		return nil
	}
	delete(state.Entries, key)
	return s.save(state)
}

func (s *YAMLStateStore) load() (yamlState, error) {
	state := yamlState{Entries: map[string]string{}}

	rawData, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return state, fmt.Errorf("read state file: %w", err)
	}

	if err := yaml.Unmarshal(rawData, &state); err != nil {
		return state, fmt.Errorf("parse state yaml: %w", err)
	}
	if state.Entries == nil {
		state.Entries = map[string]string{}
	}
	return state, nil
}

func (s *YAMLStateStore) save(state yamlState) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	serialized, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state yaml: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func resolveStatePath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, stateFileName), nil
}
