package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DBPath    string           `toml:"dbPath"`
	ExportDir string           `toml:"exportDir"`
	Language  string           `toml:"language"`
	LogConfig LogConfig        `toml:"logConfig"`
	Service   ServiceConfig    `toml:"service"`
	Defaults  GenerationConfig `toml:"defaults"`
	Batch     BatchConfig      `toml:"batch"`
	History   HistoryConfig    `toml:"history"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// ServiceConfig points at the remote image generation endpoint.
type ServiceConfig struct {
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

func (s ServiceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// GenerationConfig holds the hardcoded defaults used when a request leaves a field unset.
type GenerationConfig struct {
	Width          int     `toml:"width" json:"width"`
	Height         int     `toml:"height" json:"height"`
	Steps          int     `toml:"steps" json:"steps"`
	GuidanceScale  float64 `toml:"guidanceScale" json:"guidance_scale"`
	Seed           int     `toml:"seed" json:"seed"`
	NegativePrompt string  `toml:"negativePrompt" json:"negative_prompt"`
}

type BatchConfig struct {
	MaxCount       int  `toml:"maxCount"`
	PersistHistory bool `toml:"persistHistory"`
}

type HistoryConfig struct {
	MaxEntries int `toml:"maxEntries"` // 0 keeps everything
}

func DefaultConfig() *Config {
	return &Config{
		DBPath:    "./imagegen-studio.db",
		ExportDir: ".",
		Language:  "en",
		LogConfig: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Service: ServiceConfig{
			Endpoint:       "http://localhost:3000/api/generate-image",
			TimeoutSeconds: 120,
		},
		Defaults: GenerationConfig{
			Width:         512,
			Height:        512,
			Steps:         20,
			GuidanceScale: 7.5,
			Seed:          -1,
		},
		Batch: BatchConfig{
			MaxCount: 4,
		},
		History: HistoryConfig{
			MaxEntries: 100,
		},
	}
}

// LoadConfig decodes the TOML file at path on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, nil
}

func ValidateURL(urlString string) bool {
	if urlString == "" {
		return false
	}
	u, err := url.Parse(urlString)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func PrintConfig(cfg *Config) {
	fmt.Println()
	fmt.Println("--------------------------------")
	fmt.Println("Config:")
	fmt.Printf("\tDBPath: %s\n", cfg.DBPath)
	fmt.Printf("\tExportDir: %s\n", cfg.ExportDir)
	fmt.Printf("\tLanguage: %s\n", cfg.Language)
	fmt.Printf("\tLogConfig: %v\n", cfg.LogConfig)
	fmt.Printf("\tService: %v\n", cfg.Service)
	fmt.Printf("\tDefaults: %v\n", cfg.Defaults)
	fmt.Printf("\tBatch: %v\n", cfg.Batch)
	fmt.Printf("\tHistory: %v\n", cfg.History)
	fmt.Println("--------------------------------")
	fmt.Println()
}

func ValidateConfig(cfg *Config) error {
	if !ValidateURL(cfg.Service.Endpoint) {
		return fmt.Errorf("service.endpoint is required and must be a valid http(s) URL")
	}
	if cfg.Service.TimeoutSeconds < 0 {
		return fmt.Errorf("service.timeoutSeconds must not be negative")
	}
	if cfg.Defaults.Width <= 0 || cfg.Defaults.Width > 2048 {
		return fmt.Errorf("defaults.width must be greater than 0 and at most 2048")
	}
	if cfg.Defaults.Height <= 0 || cfg.Defaults.Height > 2048 {
		return fmt.Errorf("defaults.height must be greater than 0 and at most 2048")
	}
	if cfg.Defaults.Steps <= 0 || cfg.Defaults.Steps > 150 {
		return fmt.Errorf("defaults.steps must be greater than 0 and at most 150")
	}
	if cfg.Defaults.GuidanceScale <= 0 || cfg.Defaults.GuidanceScale > 30 {
		return fmt.Errorf("defaults.guidanceScale must be greater than 0 and at most 30")
	}
	if cfg.Defaults.Seed < -1 {
		return fmt.Errorf("defaults.seed must be -1 (random) or a non-negative integer")
	}
	if cfg.Batch.MaxCount < 1 {
		return fmt.Errorf("batch.maxCount must be at least 1")
	}
	if cfg.History.MaxEntries < 0 {
		return fmt.Errorf("history.maxEntries must not be negative")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("dbPath is required")
	}
	switch strings.ToLower(cfg.LogConfig.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logConfig.level must be one of: debug, info, warn, error")
	}
	return nil
}
