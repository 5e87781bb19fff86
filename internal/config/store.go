package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "sendpair"
	configFile = "store.yaml"

	// ConfigDirEnvVar overrides the configuration directory.
	ConfigDirEnvVar = "SENDPAIR_CONFIG_DIR"
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/sendpair or $HOME/.config/sendpair
//   - macOS: $HOME/.config/sendpair (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\sendpair
//
// SENDPAIR_CONFIG_DIR takes precedence on every platform.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnvVar); dir != "" {
		return dir, nil
	}

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// FileStore persists entries in a single YAML document on disk.
// Every Save rewrites the document atomically.
type FileStore struct {
	path string

	// mu protects doc and the file on disk
	mu  sync.Mutex
	doc *Document
}

// NewFileStore creates a store backed by store.yaml inside dir.
// If dir is empty, GetConfigDir is used.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		var err error
		dir, err = GetConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
	}
	return &FileStore{path: filepath.Join(dir, configFile)}, nil
}

// Path returns the location of the store file.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the value saved under key.
func (s *FileStore) Load(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.document()
	if err != nil {
		return "", false, err
	}

	value, ok := doc.Entries[key]
	return value, ok, nil
}

// Save stores value under key and writes the document to disk.
// The in-memory document is only updated once the write succeeds.
func (s *FileStore) Save(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.document()
	if err != nil {
		// An unreadable file must not block writes; start over.
		doc = NewDocument()
	}

	next := &Document{
		Version: documentVersion,
		Entries: make(map[string]string, len(doc.Entries)+1),
	}
	for k, v := range doc.Entries {
		next.Entries[k] = v
	}
	next.Entries[key] = value

	if err := s.write(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

// document returns the cached document, reading it from disk on first use.
// Caller must hold s.mu.
func (s *FileStore) document() (*Document, error) {
	if s.doc != nil {
		return s.doc, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.doc = NewDocument()
		return s.doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("unsupported store version: %d (expected %d)", doc.Version, documentVersion)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]string)
	}

	s.doc = &doc
	return s.doc, nil
}

// write performs an atomic write of doc. Caller must hold s.mu.
func (s *FileStore) write(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	header := []byte("# sendpair store file. Managed by sendpair; edits may be overwritten.\n\n")
	data = append(header, data...)

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary store file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save store file: %w", err)
	}

	return nil
}
