package config

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel        string        `json:"log_level" yaml:"log_level"`
	SourceFolder    string        `json:"source_folder" yaml:"source_folder"`
	OutputFile      string        `json:"output_file" yaml:"output_file"`
	Recursive       bool          `json:"recursive" yaml:"recursive"`
	Columns         ColumnsConfig `json:"columns" yaml:"columns"`
	EntryMarker     string        `json:"entry_marker" yaml:"entry_marker"`
	ExitMarker      string        `json:"exit_marker" yaml:"exit_marker"`
	TimestampFormat string        `json:"timestamp_format" yaml:"timestamp_format"`
	Storage         StorageConfig `json:"storage" yaml:"storage"`
	Publish         PublishConfig `json:"publish" yaml:"publish"`
}

// ColumnsConfig maps the required fields to the header names used in the
// source spreadsheets.
type ColumnsConfig struct {
	Plate     string `json:"plate" yaml:"plate"`
	Event     string `json:"event" yaml:"event"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type PublishConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		OutputFile: "output/parking_durations.xlsx",
		Columns: ColumnsConfig{
			Plate:     "Plate",
			Event:     "Event",
			Timestamp: "Timestamp",
		},
		EntryMarker: "01 ENTRY",
		ExitMarker:  "02 EXIT",
		Storage:     StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:parkdur.db?_pragma=busy_timeout(5000)"},
		Publish:     PublishConfig{Enabled: false},
	}
}

// Load reads a YAML or JSON config file (autodetected) over the defaults.
// Relative source/output paths are resolved against the config file's
// directory, so a config can travel with its data folder.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	base := filepath.Dir(path)
	cfg.SourceFolder = resolveAgainst(base, cfg.SourceFolder)
	cfg.OutputFile = resolveAgainst(base, cfg.OutputFile)
	ApplyDefaults(cfg)
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

// ApplyDefaults fills gaps left by partial config files or flag overrides.
// Markers are compared case-insensitively downstream, so they are stored
// uppercased here.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = "output/parking_durations.xlsx"
	}
	if cfg.Columns.Plate == "" {
		cfg.Columns.Plate = "Plate"
	}
	if cfg.Columns.Event == "" {
		cfg.Columns.Event = "Event"
	}
	if cfg.Columns.Timestamp == "" {
		cfg.Columns.Timestamp = "Timestamp"
	}
	if cfg.EntryMarker == "" {
		cfg.EntryMarker = "01 ENTRY"
	}
	if cfg.ExitMarker == "" {
		cfg.ExitMarker = "02 EXIT"
	}
	cfg.EntryMarker = strings.ToUpper(strings.TrimSpace(cfg.EntryMarker))
	cfg.ExitMarker = strings.ToUpper(strings.TrimSpace(cfg.ExitMarker))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
}

func Validate(cfg *Config) error {
	if cfg.SourceFolder == "" {
		return errors.New("source_folder is required")
	}
	if cfg.OutputFile == "" {
		return errors.New("output_file is required")
	}
	if cfg.EntryMarker == cfg.ExitMarker {
		return errors.New("entry_marker and exit_marker must differ")
	}
	if cfg.Storage.Enabled {
		switch strings.ToLower(cfg.Storage.Driver) {
		case "sqlite", "postgres", "postgresql":
		default:
			return errors.New("storage.driver must be sqlite or postgres")
		}
	}
	if cfg.Publish.Enabled {
		if len(cfg.Publish.Brokers) == 0 || cfg.Publish.Topic == "" {
			return errors.New("publish requires brokers and topic")
		}
	}
	return nil
}

func resolveAgainst(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
