package config

// Configuration loading and validation for both node roles

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/n2rd/phaselink/internal/antenna"
	"github.com/n2rd/phaselink/internal/errors"
)

// SecretEnvVar overrides the configured secret when set, so the key can stay
// out of config files checked into a shack PC's backups.
const SecretEnvVar = "PHASELINK_SECRET"

// RadioConfig addresses the two nodes and sets the retry policy.
type RadioConfig struct {
	Address        int `yaml:"address"`          // this node's link address, 1-254
	Peer           int `yaml:"peer"`             // the other node's link address
	AckTimeoutMs   int `yaml:"ack_timeout_ms"`   // per-transmission ack wait
	Retries        int `yaml:"retries"`          // transmissions before giving up
	ReplyTimeoutMs int `yaml:"reply_timeout_ms"` // wait for the reply after the command acks
}

// LinkConfig selects and parameterizes the physical link.
type LinkConfig struct {
	Type   string `yaml:"type"`             // "serial" (field) or "udp" (bench)
	Device string `yaml:"device,omitempty"` // serial: modem device path
	Baud   int    `yaml:"baud,omitempty"`   // serial: modem baud rate
	Listen string `yaml:"listen,omitempty"` // udp: local bind address
	Peer   string `yaml:"peer,omitempty"`   // udp: remote address (controller side)
}

// LoggingConfig controls log verbosity and the optional log file.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent","error","info","verbose","debug"
	File  string `yaml:"file,omitempty"`
}

// MetricsConfig controls the round-trip CSV log.
type MetricsConfig struct {
	CSV string `yaml:"csv,omitempty"`
}

// Config is the full node configuration. Both roles share the same file
// shape; the phaser ignores the controller-only keys and vice versa.
type Config struct {
	Profile string        `yaml:"profile"`
	Secret  string        `yaml:"secret,omitempty"`
	Radio   RadioConfig   `yaml:"radio"`
	Link    LinkConfig    `yaml:"link"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Phaser-only: simulate telemetry instead of reading hardware.
	SimulateSensors bool `yaml:"simulate_sensors,omitempty"`
}

// CreateDefault creates a default configuration for one controller/phaser
// pair on a UDP bench link.
func CreateDefault() *Config {
	return &Config{
		Profile: "full",
		Radio: RadioConfig{
			Address:        1,
			Peer:           2,
			AckTimeoutMs:   1000,
			Retries:        3,
			ReplyTimeoutMs: 2500,
		},
		Link: LinkConfig{
			Type:   "udp",
			Listen: "127.0.0.1:7301",
			Peer:   "127.0.0.1:7302",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		SimulateSensors: true,
	}
}

// WriteDefault writes a default configuration to a file
func WriteDefault(path string) error {
	data, err := yaml.Marshal(CreateDefault())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Load loads a configuration from a YAML file. If the file doesn't exist and
// autoCreate is true, a default config file is created first.
func Load(path string, autoCreate bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if autoCreate {
				if err := WriteDefault(path); err != nil {
					return nil, fmt.Errorf("create default config: %w", err)
				}
				data, err = os.ReadFile(path)
				if err != nil {
					return nil, errors.WrapConfigError(
						fmt.Errorf("read created config file: %w", err),
						path,
					)
				}
			} else {
				return nil, errors.WrapConfigError(
					fmt.Errorf("config file not found: %s", path),
					path,
				)
			}
		} else {
			return nil, errors.WrapConfigError(
				fmt.Errorf("read config file: %w", err),
				path,
			)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, errors.WrapConfigError(err, path)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Profile == "" {
		cfg.Profile = "full"
	}
	if cfg.Radio.Address == 0 {
		cfg.Radio.Address = 1
	}
	if cfg.Radio.Peer == 0 {
		cfg.Radio.Peer = 2
	}
	if cfg.Radio.AckTimeoutMs == 0 {
		cfg.Radio.AckTimeoutMs = 1000
	}
	if cfg.Radio.Retries == 0 {
		cfg.Radio.Retries = 3
	}
	if cfg.Radio.ReplyTimeoutMs == 0 {
		cfg.Radio.ReplyTimeoutMs = 2500
	}
	if cfg.Link.Type == "" {
		cfg.Link.Type = "udp"
	}
	if cfg.Link.Baud == 0 {
		cfg.Link.Baud = 57600
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if env := os.Getenv(SecretEnvVar); env != "" {
		cfg.Secret = env
	}
}

// Validate validates a configuration
func Validate(cfg *Config) error {
	if _, err := antenna.ByProfileName(cfg.Profile); err != nil {
		return fmt.Errorf("profile: %w", err)
	}

	if cfg.Secret == "" {
		return fmt.Errorf("secret is required (set it in the config file or via %s)", SecretEnvVar)
	}

	if cfg.Radio.Address < 1 || cfg.Radio.Address > 254 {
		return fmt.Errorf("radio.address must be 1-254, got %d", cfg.Radio.Address)
	}
	if cfg.Radio.Peer < 1 || cfg.Radio.Peer > 254 {
		return fmt.Errorf("radio.peer must be 1-254, got %d", cfg.Radio.Peer)
	}
	if cfg.Radio.Address == cfg.Radio.Peer {
		return fmt.Errorf("radio.address and radio.peer must differ")
	}
	if cfg.Radio.AckTimeoutMs < 0 || cfg.Radio.ReplyTimeoutMs < 0 {
		return fmt.Errorf("radio timeouts must be >= 0")
	}
	if cfg.Radio.Retries < 1 {
		return fmt.Errorf("radio.retries must be >= 1")
	}

	switch cfg.Link.Type {
	case "serial":
		if cfg.Link.Device == "" {
			return fmt.Errorf("link.device is required for a serial link")
		}
		if cfg.Link.Baud <= 0 {
			return fmt.Errorf("link.baud must be > 0")
		}
	case "udp":
		if cfg.Link.Listen == "" {
			return fmt.Errorf("link.listen is required for a udp link")
		}
	default:
		return fmt.Errorf("link.type must be 'serial' or 'udp', got '%s'", cfg.Link.Type)
	}

	if cfg.Logging.Level != "" {
		switch strings.ToLower(cfg.Logging.Level) {
		case "silent", "error", "info", "verbose", "debug":
		default:
			return fmt.Errorf("logging.level must be silent, error, info, verbose, or debug")
		}
	}

	return nil
}

// AntennaProfile resolves the configured profile.
func (c *Config) AntennaProfile() (*antenna.Profile, error) {
	return antenna.ByProfileName(c.Profile)
}
