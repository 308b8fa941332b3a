package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	tockerrors "github.com/abatilo/tock/internal/errors"
)

// Load merges, in increasing precedence, the defaults, the YAML file at path
// and TOCK_* environment variables. An empty path uses DefaultPath and
// tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix("TOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readFile(v, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, tockerrors.ConfigError{Key: "config", Reason: err.Error()}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, tockerrors.ConfigError{Key: "config", Reason: err.Error()}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("reminder.poll_interval", cfg.Reminder.PollInterval)
	v.SetDefault("reminder.title", cfg.Reminder.Title)
	v.SetDefault("notify.sink", cfg.Notify.Sink)
	v.SetDefault("notify.prompt", cfg.Notify.Prompt)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
}

func readFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	return v.ReadInConfig()
}

func (c *Config) normalize() error {
	dir, err := expandHome(strings.TrimSpace(c.DataDir))
	if err != nil {
		return tockerrors.ConfigError{Key: "data_dir", Reason: err.Error()}
	}
	if dir == "" {
		return tockerrors.ConfigError{Key: "data_dir", Reason: "must not be empty"}
	}
	c.DataDir = dir

	if c.Reminder.PollInterval <= 0 {
		return tockerrors.ConfigError{Key: "reminder.poll_interval", Reason: "must be greater than zero"}
	}
	if strings.TrimSpace(c.Reminder.Title) == "" {
		return tockerrors.ConfigError{Key: "reminder.title", Reason: "must not be empty"}
	}

	c.Notify.Sink = strings.ToLower(strings.TrimSpace(c.Notify.Sink))
	switch c.Notify.Sink {
	case SinkDesktop, SinkTerminal:
	default:
		return tockerrors.ConfigError{Key: "notify.sink", Reason: "must be desktop or terminal, got " + c.Notify.Sink}
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return tockerrors.ConfigError{Key: "storage.backend", Reason: "must be file or sqlite, got " + c.Storage.Backend}
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
