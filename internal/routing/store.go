// Package routing keeps the per-guild audit log destination.
package routing

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go-logbot/pkg/util"
)

// Persister is the durable side of the store. Save must not return until the
// table is on stable storage.
type Persister interface {
	Load() (map[string]string, error)
	Save(routes map[string]string) error
}

// PersistenceError means the mutation was not applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist log routes (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError reports a malformed identifier.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// ErrNotLoaded is wrapped by mutations refused after a failed Load.
var ErrNotLoaded = errors.New("routing table not loaded")

type Store struct {
	mu        sync.RWMutex
	routes    map[string]string
	persister Persister
	// loadErr holds the last Load failure. Saving over an unreadable table
	// would erase every other guild's route.
	loadErr error
}

func NewStore(p Persister) *Store {
	return &Store{
		routes:    make(map[string]string),
		persister: p,
	}
}

// Load replaces the in-memory table with the persisted one. After a failure
// Set and Clear are refused until a later Load succeeds.
func (s *Store) Load() error {
	routes, err := s.persister.Load()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.loadErr = err
		return &PersistenceError{Op: "load", Err: err}
	}
	if routes == nil {
		routes = make(map[string]string)
	}
	s.routes = routes
	s.loadErr = nil
	return nil
}

func (s *Store) Get(guildID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channelID, ok := s.routes[strings.TrimSpace(guildID)]
	return channelID, ok
}

func (s *Store) refuseLocked(op string) error {
	if s.loadErr == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: fmt.Errorf("%w: %v", ErrNotLoaded, s.loadErr)}
}

// Set routes guildID to channelID. The table is only updated once the new
// state has been saved.
func (s *Store) Set(guildID, channelID string) error {
	guildID = strings.TrimSpace(guildID)
	channelID = strings.TrimSpace(channelID)
	if !util.IsSnowflake(guildID) {
		return &ValidationError{Field: "guild ID", Value: guildID}
	}
	if !util.IsSnowflake(channelID) {
		return &ValidationError{Field: "channel ID", Value: channelID}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refuseLocked("set"); err != nil {
		return err
	}

	next := s.copyLocked()
	next[guildID] = channelID
	if err := s.persister.Save(next); err != nil {
		return &PersistenceError{Op: "set", Err: err}
	}
	s.routes = next
	return nil
}

// Clear removes the route for guildID and reports whether one existed.
func (s *Store) Clear(guildID string) (bool, error) {
	guildID = strings.TrimSpace(guildID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refuseLocked("clear"); err != nil {
		return false, err
	}

	if _, ok := s.routes[guildID]; !ok {
		return false, nil
	}

	next := s.copyLocked()
	delete(next, guildID)
	if err := s.persister.Save(next); err != nil {
		return false, &PersistenceError{Op: "clear", Err: err}
	}
	s.routes = next
	return true, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes)
}

// Snapshot returns a copy of the routing table.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() map[string]string {
	next := make(map[string]string, len(s.routes)+1)
	for k, v := range s.routes {
		next[k] = v
	}
	return next
}
