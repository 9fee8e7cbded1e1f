package preferences

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// Session caches one user's preferences. Each key is loaded at most once
// and written back only when its value changes.
type Session struct {
	store  Store
	userID string

	mu     sync.Mutex
	loaded map[string]json.RawMessage // nil value means not stored
}

// NewSession creates a session for userID.
func NewSession(store Store, userID string) *Session {
	return &Session{store: store, userID: userID, loaded: make(map[string]json.RawMessage)}
}

// Get returns the value of key, loading it on first use.
func (s *Session) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, key)
}

func (s *Session) get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if value, ok := s.loaded[key]; ok {
		return value, value != nil, nil
	}
	value, found, err := s.store.Get(ctx, s.userID, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		value = nil
	}
	s.loaded[key] = value
	return value, found, nil
}

// Set stores value under key unless it equals the current value.
// It reports whether the store was written.
func (s *Session) Set(ctx context.Context, key string, value json.RawMessage) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	if err := ValidateValue(value); err != nil {
		return false, err
	}
	compacted := compact(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, found, err := s.get(ctx, key)
	if err != nil {
		return false, err
	}
	if found && bytes.Equal(compact(current), compacted) {
		return false, nil
	}
	if err := s.store.Set(ctx, s.userID, key, compacted); err != nil {
		return false, err
	}
	s.loaded[key] = compacted
	return true, nil
}

// LoadView decodes the saved view of entity. A missing view is the zero view.
func (s *Session) LoadView(ctx context.Context, entity string) (SavedView, error) {
	var view SavedView
	raw, found, err := s.Get(ctx, ViewKey(entity))
	if err != nil || !found {
		return view, err
	}
	if err := json.Unmarshal(raw, &view); err != nil {
		return SavedView{}, err
	}
	return view, nil
}

// SaveView stores the view of entity if it changed.
func (s *Session) SaveView(ctx context.Context, entity string, view SavedView) (bool, error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return false, err
	}
	return s.Set(ctx, ViewKey(entity), raw)
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
