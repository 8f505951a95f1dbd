// Package config loads the application configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tasktempo/internal/model"
)

type Config struct {
	ListenAddr string  `yaml:"listen_addr" json:"listen_addr"`
	DataDir    string  `yaml:"data_dir" json:"data_dir"`
	Tasks      Tasks   `yaml:"tasks" json:"tasks"`
	Storage    Storage `yaml:"storage" json:"storage"`
}

type Tasks struct {
	// DailyStartMinute shifts the logical-day boundary: minutes past
	// midnight before which wall-clock time still counts as the previous
	// day. 240 = 04:00.
	DailyStartMinute int `yaml:"daily_start_minute" json:"daily_start_minute"`

	// DefaultSyncMode applies when a stage edit arrives without an explicit
	// mode: none, all or future.
	DefaultSyncMode string `yaml:"default_sync_mode" json:"default_sync_mode"`
}

type Storage struct {
	// Watch rehydrates the in-memory task list when the store file changes
	// on disk (an external writer or a restore).
	Watch bool `yaml:"watch" json:"watch"`
}

func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		DataDir:    "data",
		Tasks: Tasks{
			DailyStartMinute: 0,
			DefaultSyncMode:  string(model.SyncNone),
		},
		Storage: Storage{Watch: true},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. Unset fields take their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Tasks.DailyStartMinute < 0 || c.Tasks.DailyStartMinute > 24*60-1 {
		return fmt.Errorf("daily_start_minute must be within 0..1439, got %d", c.Tasks.DailyStartMinute)
	}
	if m := model.SyncMode(c.Tasks.DefaultSyncMode); c.Tasks.DefaultSyncMode != "" && !m.Valid() {
		return fmt.Errorf("default_sync_mode must be none, all or future, got %q", c.Tasks.DefaultSyncMode)
	}
	return nil
}
