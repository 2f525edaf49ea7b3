// Package config persists application settings as a TOML file under the
// application directory and derives the mapper timing configuration from
// them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/DavidRHannah/IRKeybridge/pkg/mapper"
)

// EnvDir overrides the application directory when set.
const EnvDir = "IRKEYBRIDGE_DIR"

// Settings are the persisted application settings. Timing values are plain
// milliseconds to keep the TOML file hand-editable.
type Settings struct {
	SerialPort string `toml:"serial_port"`
	BaudRate   int    `toml:"baud_rate"`
	LIRCSocket string `toml:"lirc_socket"`

	InitialRepeatDelayMS int    `toml:"initial_repeat_delay_ms"`
	RepeatRateMS         int    `toml:"repeat_rate_ms"`
	ReleaseTimeoutMS     int    `toml:"release_timeout_ms"`
	SequenceKeyDelayMS   int    `toml:"sequence_key_delay_ms"`
	GhostKey             string `toml:"ghost_key"`

	LastProfile string `toml:"last_profile"`
	LogLevel    string `toml:"log_level"`
}

// DefaultSettings returns the stock settings.
func DefaultSettings() Settings {
	return Settings{
		SerialPort:           "/dev/ttyUSB0",
		BaudRate:             9600,
		InitialRepeatDelayMS: 300,
		RepeatRateMS:         9,
		ReleaseTimeoutMS:     120,
		SequenceKeyDelayMS:   20,
		GhostKey:             "f10",
		LogLevel:             "info",
	}
}

// MapperConfig converts the settings into the engine timing configuration.
func (s Settings) MapperConfig() mapper.Config {
	return mapper.Config{
		InitialRepeatDelay: time.Duration(s.InitialRepeatDelayMS) * time.Millisecond,
		RepeatRate:         time.Duration(s.RepeatRateMS) * time.Millisecond,
		ReleaseTimeout:     time.Duration(s.ReleaseTimeoutMS) * time.Millisecond,
		SequenceKeyDelay:   time.Duration(s.SequenceKeyDelayMS) * time.Millisecond,
		GhostKey:           s.GhostKey,
	}
}

// Manager loads and saves settings for one application directory.
type Manager struct {
	dir      string
	Settings Settings
}

// DefaultDir resolves the application directory: $IRKEYBRIDGE_DIR if set,
// otherwise ~/.irkeybridge.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".irkeybridge"), nil
}

// Load reads settings.toml from dir, falling back to defaults for anything
// missing. A missing file is not an error.
func Load(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	m := &Manager{dir: dir, Settings: DefaultSettings()}
	path := m.settingsPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return m, nil
	}
	if _, err := toml.DecodeFile(path, &m.Settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

// Save writes the current settings back to settings.toml.
func (m *Manager) Save() error {
	data, err := gotoml.Marshal(m.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(m.settingsPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Dir returns the application directory.
func (m *Manager) Dir() string {
	return m.dir
}

// ProfilesDir returns the directory profile files live in.
func (m *Manager) ProfilesDir() string {
	return filepath.Join(m.dir, "profiles")
}

func (m *Manager) settingsPath() string {
	return filepath.Join(m.dir, "settings.toml")
}
