package storage

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// KVEntry is one row of the durable key-value table.
type KVEntry struct {
	Key       string `gorm:"primaryKey;column:kv_key"`
	Value     string `gorm:"column:value;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// HistoryEntry is a persisted record of one successful generation.
// Entries are never modified after creation.
type HistoryEntry struct {
	ID        string         `json:"id"`
	Image     string         `json:"image"`
	Prompt    string         `json:"prompt"`
	Settings  map[string]any `json:"settings"`
	CreatedAt string         `json:"createdAt"`
}

func (e HistoryEntry) clone() HistoryEntry {
	e.Settings = maps.Clone(e.Settings)
	return e
}

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeDark:
		return ThemeDark, nil
	case ThemeLight:
		return ThemeLight, nil
	default:
		return "", fmt.Errorf("unknown theme %q, expected dark or light", s)
	}
}

// GenerationSettings are the last-used parameters of a successful generation.
type GenerationSettings struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Seed           int     `json:"seed"`
	NegativePrompt string  `json:"negative_prompt"`
}
