package device

import (
	"strings"

	"github.com/hollyward/showbox-core/internal/infrastructure/config"
)

// Device is one addressable animatronic endpoint.
type Device struct {
	// ID is the short identifier used for character mapping (e.g. "sam").
	ID string

	// Name is the human-readable display name (e.g. "Sam's Box").
	Name string

	// Topic is the MQTT topic base for the device. Commands are published
	// to Topic + "/cmd" and status arrives on Topic + "/status".
	Topic string
}

// Logger is the logging interface the directory needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Directory is the ordered device table.
//
// It is immutable after construction; all methods are safe for concurrent
// use.
type Directory struct {
	devices []Device
	logger  Logger
}

// NewDirectory builds a directory from the configured device list, keeping
// configuration order. An empty list is allowed but logged as a warning:
// resolution still answers (index 0) and sends become no-ops downstream.
func NewDirectory(cfgs []config.DeviceConfig, logger Logger) *Directory {
	if logger == nil {
		logger = noopLogger{}
	}

	devices := make([]Device, 0, len(cfgs))
	for _, c := range cfgs {
		devices = append(devices, Device{
			ID:    c.ID,
			Name:  c.Name,
			Topic: c.Topic,
		})
	}

	if len(devices) == 0 {
		logger.Warn("device directory is empty; all cues will resolve to index 0 and be dropped")
	}

	return &Directory{
		devices: devices,
		logger:  logger,
	}
}

// Len returns the number of configured devices.
func (d *Directory) Len() int {
	return len(d.devices)
}

// Get returns the device at the given index.
func (d *Directory) Get(index int) (Device, bool) {
	if index < 0 || index >= len(d.devices) {
		return Device{}, false
	}
	return d.devices[index], true
}

// Resolve maps a free-text character name (or device ID) to a device index.
//
// The search is case-insensitive and runs in strict priority order, each
// stage short-circuiting on its first hit:
//  1. Exact match against device ID
//  2. Device ID contains the search term
//  3. Display name contains the search term
//
// An unresolvable name fails open to index 0 so that a mistyped or unmapped
// character still drives the first configured device. The miss is logged at
// warn level because it usually means the script and the directory disagree.
func (d *Directory) Resolve(nameOrID string) int {
	if len(d.devices) == 0 {
		return 0
	}

	term := strings.ToLower(strings.TrimSpace(nameOrID))

	for i, dev := range d.devices {
		if strings.ToLower(dev.ID) == term {
			return i
		}
	}

	for i, dev := range d.devices {
		if term != "" && strings.Contains(strings.ToLower(dev.ID), term) {
			return i
		}
	}

	for i, dev := range d.devices {
		if term != "" && strings.Contains(strings.ToLower(dev.Name), term) {
			return i
		}
	}

	d.logger.Warn("character did not resolve to a device, using index 0",
		"character", nameOrID,
		"fallback", d.devices[0].ID,
	)
	return 0
}
