// Package history records asked questions and their raw answers so they
// can be listed, searched and re-rendered later.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound is returned by Get for an unknown entry ID.
var ErrNotFound = errors.New("history entry not found")

// Entry is one question and the answer the backend gave.
type Entry struct {
	ID        int64         `json:"id" yaml:"id"`
	Query     string        `json:"query" yaml:"query"`
	Mode      string        `json:"mode,omitempty" yaml:"mode,omitempty"`
	Backend   string        `json:"backend" yaml:"backend"`
	Answer    string        `json:"answer" yaml:"answer"`
	HasCode   bool          `json:"has_code" yaml:"has_code"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
}

// Store persists history entries.
type Store interface {
	Add(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id int64) (*Entry, error)
	// List returns the newest entries first.
	List(ctx context.Context, limit int) ([]Entry, error)
	// Search returns entries whose question or answer match query, best
	// match first.
	Search(ctx context.Context, query string, limit int) ([]Entry, error)
	Close() error
}

// Config controls where and how much history is kept.
type Config struct {
	Enabled  bool
	Path     string // empty uses DefaultPath
	MaxCount int    // 0 keeps everything
}

// NewStore opens the configured store. Disabled history returns a
// NoopStore.
func NewStore(cfg Config) (Store, error) {
	if !cfg.Enabled {
		return NoopStore{}, nil
	}
	return NewSQLiteStore(cfg)
}

// GetDataDir returns the XDG data directory for chatr.
func GetDataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "chatr"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "chatr"), nil
}

// DefaultPath returns the default history database path.
func DefaultPath() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "history.db"), nil
}

// NoopStore discards everything.
type NoopStore struct{}

func (NoopStore) Add(context.Context, *Entry) error { return nil }

func (NoopStore) Get(context.Context, int64) (*Entry, error) { return nil, ErrNotFound }

func (NoopStore) List(context.Context, int) ([]Entry, error) { return nil, nil }

func (NoopStore) Search(context.Context, string, int) ([]Entry, error) { return nil, nil }

func (NoopStore) Close() error { return nil }
