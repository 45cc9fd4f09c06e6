package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bastiangx/tagserve/internal/utils"
	"github.com/charmbracelet/log"
)

// ErrInvalidColor is returned by SetMatchColor for unusable values.
var ErrInvalidColor = errors.New("config: invalid match color")

// Store owns the loaded config. Readers may call it from any goroutine;
// every change is written back to the file it was loaded from.
type Store struct {
	config *Config
	path   string
	mu     sync.RWMutex
}

// NewStore wraps config. An empty path keeps changes in memory only.
func NewStore(config *Config, path string) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	return &Store{config: config, path: path}
}

// MatchColor returns the colour used to highlight matched runes.
func (s *Store) MatchColor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Settings.MatchColor
}

// SetMatchColor updates the highlight colour and saves the config.
// The in-memory value changes even if saving fails.
func (s *Store) SetMatchColor(color string) error {
	color = strings.TrimSpace(color)
	if !utils.IsValidColor(color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Settings.MatchColor = color
	log.Debugf("Match color set to %s", color)
	return s.saveLocked()
}

// Snapshot returns a copy of the current config.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := *s.config
	c.Vault.Extensions = append([]string(nil), s.config.Vault.Extensions...)
	return c
}

// Limit bounds a requested suggestion count by the server limits.
func (s *Store) Limit(requested int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return utils.ClampLimit(requested, s.config.Server.DefaultLimit, s.config.Server.MaxLimit)
}

// Path returns the file changes are saved to, or "" if none.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := SaveConfig(s.config, s.path); err != nil {
		return fmt.Errorf("failed to save config to %s: %w", s.path, err)
	}
	return nil
}
