package config

import "time"

// Config is the full tock configuration.
type Config struct {
	// DataDir holds the persisted collections and the watcher record.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	Reminder ReminderConfig `yaml:"reminder" mapstructure:"reminder"`

	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`

	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
}

// ReminderConfig configures the reminder scheduler.
type ReminderConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	Title        string        `yaml:"title" mapstructure:"title"`
}

// NotifyConfig selects how reminders reach the user.
type NotifyConfig struct {
	// Sink is "desktop" or "terminal".
	Sink string `yaml:"sink" mapstructure:"sink"`
	// Prompt asks on the terminal when the desktop permission is undecided.
	Prompt bool `yaml:"prompt" mapstructure:"prompt"`
}

// StorageConfig selects where the collections are kept inside DataDir.
type StorageConfig struct {
	// Backend is "file" (one YAML file per collection) or "sqlite".
	Backend string `yaml:"backend" mapstructure:"backend"`
}

const (
	SinkDesktop  = "desktop"
	SinkTerminal = "terminal"

	BackendFile   = "file"
	BackendSQLite = "sqlite"
)
