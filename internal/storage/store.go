package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Fixed names under which the store's values are persisted.
const (
	HistoryKey  = "ai_image_history"
	ThemeKey    = "ai_image_theme"
	SettingsKey = "generation_settings"
)

// PersistenceError reports a failed read or write of durable state.
// Callers log it and carry on with in-memory state.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store holds generation history, the theme preference and the last-used
// settings. Values are read from the backend once in NewStore; every mutation
// rewrites the whole value for its key.
type Store struct {
	backend    Backend
	logger     *zap.Logger
	maxEntries int

	mu         sync.Mutex
	history    []HistoryEntry
	theme      Theme
	settings   *GenerationSettings
	themeHooks []func(Theme)
}

// NewStore loads persisted state from backend. maxEntries caps the history
// length, 0 means unbounded. Read failures are logged and fall back to defaults.
func NewStore(backend Backend, maxEntries int, logger *zap.Logger) *Store {
	s := &Store{
		backend:    backend,
		logger:     logger.Named("storage"),
		maxEntries: maxEntries,
		theme:      ThemeDark,
	}
	s.load()
	return s
}

func (s *Store) load() {
	if raw, found, err := s.backend.Get(HistoryKey); err != nil {
		s.logger.Warn("Failed to read history, starting empty", zap.Error(&PersistenceError{Op: "read", Key: HistoryKey, Err: err}))
	} else if found {
		var history []HistoryEntry
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			s.logger.Warn("Stored history is not valid JSON, starting empty", zap.Error(err))
		} else {
			s.history = history
		}
	}

	if raw, found, err := s.backend.Get(ThemeKey); err != nil {
		s.logger.Warn("Failed to read theme, using dark", zap.Error(&PersistenceError{Op: "read", Key: ThemeKey, Err: err}))
	} else if found {
		if theme, err := ParseTheme(raw); err == nil {
			s.theme = theme
		} else {
			s.logger.Warn("Stored theme is invalid, using dark", zap.String("value", raw))
		}
	}

	s.loadSettings()

	s.logger.Debug("Store loaded", zap.Int("history_len", len(s.history)), zap.String("theme", string(s.theme)))
}

// History returns a copy of the entries, most recent first.
func (s *Store) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, len(s.history))
	for i, e := range s.history {
		out[i] = e.clone()
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Append prepends entry and persists the full sequence. The in-memory history
// is updated even when the write fails.
func (s *Store) Append(entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]HistoryEntry, 0, len(s.history)+1)
	history = append(history, entry.clone())
	history = append(history, s.history...)
	if s.maxEntries > 0 && len(history) > s.maxEntries {
		s.logger.Debug("Dropping history entries over retention limit", zap.Int("dropped", len(history)-s.maxEntries))
		history = history[:s.maxEntries]
	}
	s.history = history

	return s.persistHistory()
}

// Clear empties the history and removes the persisted value.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	if err := s.backend.Delete(HistoryKey); err != nil {
		perr := &PersistenceError{Op: "delete", Key: HistoryKey, Err: err}
		s.logger.Error("Failed to clear history", zap.Error(perr))
		return perr
	}
	return nil
}

func (s *Store) persistHistory() error {
	if s.history == nil {
		s.history = []HistoryEntry{}
	}
	data, err := json.Marshal(s.history)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: HistoryKey, Err: err}
	}
	if err := s.backend.Put(HistoryKey, string(data)); err != nil {
		perr := &PersistenceError{Op: "write", Key: HistoryKey, Err: err}
		s.logger.Error("Failed to persist history", zap.Error(perr))
		return perr
	}
	return nil
}

func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// OnThemeChange registers fn to run after every SetTheme.
func (s *Store) OnThemeChange(fn func(Theme)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.themeHooks = append(s.themeHooks, fn)
}

// SetTheme stores theme and notifies the registered hooks. Hooks run even if
// the write fails so the session still reflects the choice.
func (s *Store) SetTheme(theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}

	s.mu.Lock()
	s.theme = theme
	hooks := append([]func(Theme){}, s.themeHooks...)
	err := s.backend.Put(ThemeKey, string(theme))
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(theme)
	}

	if err != nil {
		perr := &PersistenceError{Op: "write", Key: ThemeKey, Err: err}
		s.logger.Error("Failed to persist theme", zap.Error(perr))
		return perr
	}
	return nil
}
