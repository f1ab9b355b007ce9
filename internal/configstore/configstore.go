// Package configstore persists the saved DM8 connection profile.
package configstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/session"
)

// DefaultProfile is the only profile the server reads and writes.
const DefaultProfile = "default-dm8"

// Source says where a connection profile came from.
type Source string

const (
	SourceFile Source = "file"
	SourceEnv  Source = "env"
)

// Environment variables consulted when no profile has been saved.
const (
	EnvHost     = "DATABASE_HOST"
	EnvPort     = "DATABASE_PORT"
	EnvUsername = "DATABASE_USERNAME"
	EnvPassword = "DATABASE_PASSWORD"
	EnvSchema   = "DATABASE_SCHEMA"
)

// StoredConnection is a profile together with its provenance.
type StoredConnection struct {
	Config    session.ConnectionConfig `json:"config" yaml:"config"`
	Source    Source                   `json:"source" yaml:"source"`
	UpdatedAt string                   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

type profile struct {
	DBType string `toml:"db_type"`
	session.ConnectionConfig
	UpdatedAt string `toml:"updated_at"`
}

type document struct {
	Connections map[string]profile `toml:"connections"`
}

// Store reads and writes profiles in a TOML file.
type Store struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New returns a store backed by path. The parent directory is created.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: failed to create config directory %s: %w", core.ErrIO, dir, err)
		}
	}
	return &Store{path: path, now: time.Now}, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns the saved default profile, or nil when none exists.
func (s *Store) Get() (*StoredConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	p, ok := doc.Connections[DefaultProfile]
	if !ok {
		return nil, nil
	}
	return &StoredConnection{Config: p.ConnectionConfig, Source: SourceFile, UpdatedAt: p.UpdatedAt}, nil
}

// Save validates cfg and upserts it as the default profile, stamping
// updated_at with the current time in RFC3339.
func (s *Store) Save(cfg session.ConnectionConfig) (*StoredConnection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if doc.Connections == nil {
		doc.Connections = make(map[string]profile)
	}
	updated := s.now().UTC().Format(time.RFC3339)
	doc.Connections[DefaultProfile] = profile{DBType: "dm8", ConnectionConfig: cfg, UpdatedAt: updated}

	if err := s.write(doc); err != nil {
		return nil, err
	}
	return &StoredConnection{Config: cfg, Source: SourceFile, UpdatedAt: updated}, nil
}

// Resolve returns the saved profile, falling back to the DATABASE_*
// environment variables.
func (s *Store) Resolve() (*StoredConnection, error) {
	stored, err := s.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to read saved config: %w", err)
	}
	if stored != nil {
		return stored, nil
	}
	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("no saved connection and failed to read env: %w", err)
	}
	return &StoredConnection{Config: cfg, Source: SourceEnv}, nil
}

// FromEnv builds a connection from the DATABASE_* variables. All five must
// be set.
func FromEnv(lookup func(string) (string, bool)) (session.ConnectionConfig, error) {
	var cfg session.ConnectionConfig
	get := func(key string) (string, error) {
		v, ok := lookup(key)
		if !ok {
			return "", fmt.Errorf("%w: %s not set", core.ErrConfig, key)
		}
		return v, nil
	}

	var err error
	if cfg.Host, err = get(EnvHost); err != nil {
		return cfg, err
	}
	port, err := get(EnvPort)
	if err != nil {
		return cfg, err
	}
	n, perr := strconv.ParseUint(port, 10, 16)
	if perr != nil {
		return cfg, fmt.Errorf("%w: %s is not a valid port", core.ErrConfig, EnvPort)
	}
	cfg.Port = int(n)
	if cfg.Username, err = get(EnvUsername); err != nil {
		return cfg, err
	}
	if cfg.Password, err = get(EnvPassword); err != nil {
		return cfg, err
	}
	if cfg.Schema, err = get(EnvSchema); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *Store) read() (document, error) {
	var doc document
	_, err := toml.DecodeFile(s.path, &doc)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, os.ErrNotExist):
		return document{}, nil
	default:
		return document{}, fmt.Errorf("%w: failed to read %s: %w", core.ErrIO, s.path, err)
	}
}

// write replaces the file atomically through a temp file in the same directory.
func (s *Store) write(doc document) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("%w: failed to save connection: %w", core.ErrIO, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o600); err == nil {
		err = toml.NewEncoder(tmp).Encode(doc)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), s.path)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to save connection: %w", core.ErrIO, err)
	}
	return nil
}
