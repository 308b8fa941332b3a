package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/abatilo/tock/internal/reminder"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "~/.tock",
		Reminder: ReminderConfig{
			PollInterval: reminder.DefaultInterval,
			Title:        reminder.DefaultTitle,
		},
		Notify: NotifyConfig{
			Sink:   SinkDesktop,
			Prompt: true,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
		},
	}
}

// DefaultPath returns the path of the user's config file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tock", "config.yaml")
}

// defaultFile mirrors Config with a duration string, which is how users write it.
type defaultFile struct {
	DataDir  string `yaml:"data_dir"`
	Reminder struct {
		PollInterval string `yaml:"poll_interval"`
		Title        string `yaml:"title"`
	} `yaml:"reminder"`
	Notify  NotifyConfig  `yaml:"notify"`
	Storage StorageConfig `yaml:"storage"`
}

// WriteDefault writes the default configuration to path. An existing file is
// left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := DefaultConfig()
	var f defaultFile
	f.DataDir = cfg.DataDir
	f.Reminder.PollInterval = cfg.Reminder.PollInterval.String()
	f.Reminder.Title = cfg.Reminder.Title
	f.Notify = cfg.Notify
	f.Storage = cfg.Storage

	data, err := yaml.Marshal(&f)
	if err != nil {
		return err
	}

	//nolint:gosec // G301: 0755 is appropriate for the user's config directory
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	//nolint:gosec // G306: 0644 is appropriate for a user config file
	return os.WriteFile(path, append([]byte("# tock configuration\n"), data...), 0o644)
}
