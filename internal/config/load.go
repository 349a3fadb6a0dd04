package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Save writes the configuration as indented JSON.
func Save(path string, cfg B210Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load reads a configuration file. JSON and YAML are both accepted; the
// format is picked by file extension, defaulting to JSON.
func Load(path string) (B210Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return B210Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultB210()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return B210Config{}, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return B210Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	return cfg, nil
}

// LoadOrCreate returns the configuration at path, writing the defaults there
// first if no file exists yet.
func LoadOrCreate(path string) (B210Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultB210()
		if saveErr := Save(path, cfg); saveErr != nil {
			return B210Config{}, saveErr
		}
		return cfg, nil
	}
	return Load(path)
}

// DataDir returns the signal-capture directory under the configured base.
func (c B210Config) DataDir() string { return filepath.Join(c.BaseDir, "data") }

// LogDir returns the log directory under the configured base.
func (c B210Config) LogDir() string { return filepath.Join(c.BaseDir, "logs") }

// TempDir returns the scratch directory under the configured base.
func (c B210Config) TempDir() string { return filepath.Join(c.BaseDir, "temp") }

// EnsureDirs creates the data, log and temp directories.
func (c B210Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir(), c.LogDir(), c.TempDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
