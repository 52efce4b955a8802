package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
show:
  id: "test-show"
  script: "seq.json"
devices:
  - id: "kristine"
    name: "Kristine's Box"
    topic: "lockbox/1"
  - id: "jacob"
    name: "Jacob's Box"
    topic: "lockbox/2"
mqtt:
  broker:
    host: "broker.local"
    port: 9001
    websocket: true
    client_id: "test-client"
  qos: 1
  reconnect_delay: 5
database:
  path: "/tmp/test.db"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Show.ID != "test-show" {
		t.Errorf("Show.ID = %q, want %q", cfg.Show.ID, "test-show")
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("len(Devices) = %d, want 2", len(cfg.Devices))
	}
	if cfg.Devices[0].Topic != "lockbox/1" {
		t.Errorf("Devices[0].Topic = %q, want %q", cfg.Devices[0].Topic, "lockbox/1")
	}
	if !cfg.MQTT.Broker.Websocket {
		t.Error("MQTT.Broker.Websocket = false, want true")
	}
	if got := cfg.GetReconnectDelay(); got != 5*time.Second {
		t.Errorf("GetReconnectDelay() = %v, want 5s", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "show:\n  id: \"s\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Show.Script != "show_sequence.json" {
		t.Errorf("Show.Script = %q, want default show_sequence.json", cfg.Show.Script)
	}
	if cfg.Speech.DefaultRate != 1.1 {
		t.Errorf("Speech.DefaultRate = %v, want 1.1", cfg.Speech.DefaultRate)
	}
	if cfg.MQTT.ReconnectDelay != 5 {
		t.Errorf("MQTT.ReconnectDelay = %d, want 5", cfg.MQTT.ReconnectDelay)
	}
	if _, ok := cfg.Speech.Voices["kristine"]; !ok {
		t.Error("default voice table missing kristine profile")
	}
}

func TestLoad_EmptyDevicesIsValid(t *testing.T) {
	// An empty directory is a warning at startup, never a config error.
	cfg, err := Load(writeConfig(t, "show:\n  id: \"s\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Devices) != 0 {
		t.Errorf("len(Devices) = %d, want 0", len(cfg.Devices))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(_ *Config) {}, false},
		{"missing show id", func(c *Config) { c.Show.ID = "" }, true},
		{"empty script runs operator-driven", func(c *Config) { c.Show.Script = "" }, false},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"zero reconnect delay", func(c *Config) { c.MQTT.ReconnectDelay = 0 }, true},
		{"device without topic", func(c *Config) {
			c.Devices = []DeviceConfig{{ID: "a", Topic: ""}}
		}, true},
		{"duplicate device id", func(c *Config) {
			c.Devices = []DeviceConfig{
				{ID: "a", Topic: "t/1"},
				{ID: "a", Topic: "t/2"},
			}
		}, true},
		{"zero speech rate", func(c *Config) { c.Speech.DefaultRate = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SHOWBOX_MQTT_HOST", "env-broker")
	t.Setenv("SHOWBOX_DATABASE_PATH", "/tmp/env.db")

	cfg, err := Load(writeConfig(t, "show:\n  id: \"s\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want env-broker", cfg.MQTT.Broker.Host)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Database.Path = %q, want /tmp/env.db", cfg.Database.Path)
	}
}
