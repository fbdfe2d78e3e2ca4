package storage

import (
	"encoding/json"

	"go.uber.org/zap"
)

// loadSettings runs under NewStore, before the store is shared.
func (s *Store) loadSettings() {
	raw, found, err := s.backend.Get(SettingsKey)
	if err != nil {
		s.logger.Warn("Failed to read last-used settings, using configured defaults", zap.Error(&PersistenceError{Op: "read", Key: SettingsKey, Err: err}))
		return
	}
	if !found {
		s.logger.Debug("No last-used settings stored")
		return
	}
	var settings GenerationSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		s.logger.Warn("Stored settings are not valid JSON, ignoring", zap.Error(err))
		return
	}
	s.settings = &settings
}

// LastSettings returns the parameters of the last successful generation, if any.
func (s *Store) LastSettings() (GenerationSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return GenerationSettings{}, false
	}
	return *s.settings, true
}

// SaveSettings persists settings as the new last-used parameters.
func (s *Store) SaveSettings(settings GenerationSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings
	data, err := json.Marshal(settings)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: SettingsKey, Err: err}
	}
	if err := s.backend.Put(SettingsKey, string(data)); err != nil {
		perr := &PersistenceError{Op: "write", Key: SettingsKey, Err: err}
		s.logger.Error("Failed to persist settings", zap.Error(perr))
		return perr
	}
	s.logger.Debug("Saved last-used settings", zap.Any("settings", settings))
	return nil
}
