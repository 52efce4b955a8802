package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Showbox Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Show      ShowConfig      `yaml:"show"`
	Devices   []DeviceConfig  `yaml:"devices"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Speech    SpeechConfig    `yaml:"speech"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Database  DatabaseConfig  `yaml:"database"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ShowConfig contains show-level settings.
type ShowConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Script string `yaml:"script"`
}

// DeviceConfig describes one animatronic device endpoint.
//
// The list in Config.Devices is ordered: a device's position is its index,
// and index 0 is the fail-open default when character resolution misses.
type DeviceConfig struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Topic string `yaml:"topic"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`

	// ReconnectDelay is the fixed delay (in seconds) before the dispatcher
	// retries a failed connection. Retries continue forever.
	ReconnectDelay int `yaml:"reconnect_delay"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Websocket selects ws:// (or wss:// with TLS) instead of tcp://.
	// The show floor reaches the broker through a websocket listener.
	Websocket bool   `yaml:"websocket"`
	TLS       bool   `yaml:"tls"`
	ClientID  string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SpeechConfig contains narration settings.
type SpeechConfig struct {
	Enabled bool `yaml:"enabled"`

	// DefaultRate is the speaking rate applied when a request has no override.
	DefaultRate float64 `yaml:"default_rate"`

	// DefaultVoice is the voice requested for characters without a profile
	// (including the "system" narrator).
	DefaultVoice string `yaml:"default_voice"`

	// Voices maps a character name to its voice profile. Lookup is
	// case-insensitive.
	Voices map[string]VoiceProfile `yaml:"voices"`
}

// VoiceProfile selects synthesis parameters for one character.
type VoiceProfile struct {
	// Names are candidate voice names in preference order. The first name
	// that matches an available voice (substring match) wins.
	Names []string `yaml:"names"`
	Pitch float64  `yaml:"pitch"`
}

// PlaybackConfig contains the external playback and synthesis commands.
type PlaybackConfig struct {
	Player PlayerConfig `yaml:"player"`
	Synth  SynthConfig  `yaml:"synth"`
}

// PlayerConfig describes the external audio player binary.
// The media reference is appended to Args for each invocation.
type PlayerConfig struct {
	Binary string   `yaml:"binary"`
	Args   []string `yaml:"args"`
}

// SynthConfig describes the external speech synthesis binary.
type SynthConfig struct {
	Binary string   `yaml:"binary"`
	Args   []string `yaml:"args"`

	// Voices lists the voice names the binary offers, in order. Used when
	// the binary cannot enumerate its own voices.
	Voices []string `yaml:"voices"`
}

// DatabaseConfig contains SQLite database settings for the show event log.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// TelemetryConfig contains InfluxDB connection settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SHOWBOX_SECTION_KEY
// For example: SHOWBOX_MQTT_HOST, SHOWBOX_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// The voice table mirrors the show's original casting: each character has a
// preferred voice plus a fallback for hosts where the preferred voice is not
// installed.
func defaultConfig() *Config {
	return &Config{
		Show: ShowConfig{
			ID:     "show-001",
			Name:   "Showbox",
			Script: "show_sequence.json",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "showbox-core",
			},
			QoS:            0,
			ReconnectDelay: 5,
		},
		Speech: SpeechConfig{
			Enabled:      true,
			DefaultRate:  1.1,
			DefaultVoice: "Samantha",
			Voices: map[string]VoiceProfile{
				"jacob":    {Names: []string{"Daniel", "David"}, Pitch: 1.0},
				"kristine": {Names: []string{"Tessa", "Zira"}, Pitch: 1.1},
				"sam":      {Names: []string{"Fred", "Mark"}, Pitch: 1.2},
			},
		},
		Playback: PlaybackConfig{
			Player: PlayerConfig{
				Binary: "mpv",
				Args:   []string{"--no-video", "--really-quiet"},
			},
			Synth: SynthConfig{
				Binary: "espeak-ng",
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/showbox.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SHOWBOX_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Show
	if v := os.Getenv("SHOWBOX_SHOW_SCRIPT"); v != "" {
		cfg.Show.Script = v
	}

	// MQTT
	if v := os.Getenv("SHOWBOX_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SHOWBOX_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SHOWBOX_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Database
	if v := os.Getenv("SHOWBOX_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Telemetry
	if v := os.Getenv("SHOWBOX_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors.
//
// An empty device list is deliberately not an error: the show must start
// even with no directory configured (resolution fails open to index 0, and
// sends become no-ops). Callers surface it as a warning instead.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Show.ID == "" {
		errs = append(errs, "show.id is required")
	}
	// An empty show.script is valid: the show runs operator-driven with no
	// preloaded script.

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.ID == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].id is required", i))
		}
		if d.Topic == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].topic is required", i))
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Sprintf("devices[%d].id %q is duplicated", i, d.ID))
		}
		seen[d.ID] = true
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.ReconnectDelay < 1 {
		errs = append(errs, "mqtt.reconnect_delay must be at least 1 second")
	}

	if c.Speech.DefaultRate <= 0 {
		errs = append(errs, "speech.default_rate must be positive")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReconnectDelay returns the dispatcher reconnect delay as a Duration.
func (c *Config) GetReconnectDelay() time.Duration {
	return time.Duration(c.MQTT.ReconnectDelay) * time.Second
}
