package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the whole application configuration.
type Config struct {
	Relay     RelayConfig     `toml:"relay"`
	Gate      GateConfig      `toml:"gate"`
	Write     WriteConfig     `toml:"write"`
	UDC       UDCConfig       `toml:"udc"`
	Gadget    GadgetConfig    `toml:"gadget"`
	Bluetooth BluetoothConfig `toml:"bluetooth"`
}

// RelayConfig selects which input devices are relayed and how.
type RelayConfig struct {
	// AutoDiscover relays every input device except those whose name starts
	// with one of SkipNamePrefixes. Mutually exclusive with
	// DeviceIdentifiers.
	AutoDiscover      bool     `toml:"auto_discover"`
	DeviceIdentifiers []string `toml:"device_identifiers"`
	SkipNamePrefixes  []string `toml:"skip_name_prefixes"`
	GrabDevices       bool     `toml:"grab_devices"`
	// InterruptShortcut is a key combination (e.g. "CTRL+SHIFT+Q") that
	// toggles relaying globally. Empty disables the toggler.
	InterruptShortcut string `toml:"interrupt_shortcut"`
}

// GateConfig enables the individual inputs of the relay gate conjunction.
type GateConfig struct {
	RequireHostReady      bool `toml:"require_host_ready"`
	RequireDevicesPresent bool `toml:"require_devices_present"`
}

// WriteConfig tunes the retry policy for blocked HID writes.
type WriteConfig struct {
	Retries    int           `toml:"retries"`
	RetryDelay time.Duration `toml:"retry_delay"`
	Timeout    time.Duration `toml:"timeout"`
}

// UDCConfig controls the USB Device Controller state poller.
type UDCConfig struct {
	PollInterval time.Duration `toml:"poll_interval"`
	// StatePath points at the controller's state file. Empty means
	// autodetect under /sys/class/udc.
	StatePath string `toml:"state_path"`
}

// GadgetConfig names the configfs USB gadget.
type GadgetConfig struct {
	Name string `toml:"name"`
}

// BluetoothConfig controls the optional BlueZ disconnect monitor.
type BluetoothConfig struct {
	Monitor bool   `toml:"monitor"`
	Adapter string `toml:"adapter"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Relay: RelayConfig{
			AutoDiscover:     true,
			SkipNamePrefixes: []string{"vc4-hdmi"},
		},
		Gate: GateConfig{
			RequireHostReady: true,
		},
		Write: WriteConfig{
			Retries:    1,
			RetryDelay: 10 * time.Millisecond,
			Timeout:    5 * time.Millisecond,
		},
		UDC: UDCConfig{
			PollInterval: 500 * time.Millisecond,
		},
		Gadget: GadgetConfig{
			Name: "g1",
		},
		Bluetooth: BluetoothConfig{
			Monitor: false,
			Adapter: "hci0",
		},
	}
}

// GetDefaultConfigDir returns the per-user configuration directory.
func GetDefaultConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "bluetooth-2-hid"), nil
}

// LoadConfig reads the configuration file, creating it with defaults if it
// does not exist yet.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return config, err
		}
		if err := SaveConfig(configPath, config); err != nil {
			return config, err
		}
		return config, nil
	}

	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return config, err
	}

	return config, nil
}

// SaveConfig writes the configuration as TOML.
func SaveConfig(configPath string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(config)
}
