package config

import (
	"errors"
	"fmt"
	"time"
)

// Device types understood by the station manager.
const (
	DeviceTypeWXT520 = "vaisala-wxt520"

	ControllerTypeStatus = "status"
)

// Defaults applied when a device or controller leaves a field unset.
const (
	DefaultBaud         = 19200
	DefaultPollInterval = 10 * time.Second
	DefaultStatusPort   = 8080
)

// ErrDeviceNotFound is returned by GetDevice for an unknown name.
var ErrDeviceNotFound = errors.New("device not found")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDevices() ([]DeviceData, error)
	GetDevice(name string) (*DeviceData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Devices     []DeviceData     `json:"devices"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// DeviceData holds configuration for one weather transmitter. A transmitter
// is reached either through a serial device or a TCP serial bridge.
type DeviceData struct {
	Name              string `json:"name"`
	Type              string `json:"type,omitempty"`
	Enabled           bool   `json:"enabled"`
	Hostname          string `json:"hostname,omitempty"`
	Port              string `json:"port,omitempty"`
	SerialDevice      string `json:"serial_device,omitempty"`
	Baud              int    `json:"baud,omitempty"`
	StationID         int    `json:"station_id"`
	WindDirCorrection int16  `json:"wind_dir_correction,omitempty"`
	PollInterval      string `json:"poll_interval,omitempty"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type   string            `json:"type,omitempty"`
	Status *StatusServerData `json:"status,omitempty"`
}

// StatusServerData configures the HTTP status and metrics endpoint.
type StatusServerData struct {
	ListenAddr     string `json:"listen_addr,omitempty"`
	Port           int    `json:"port,omitempty"`
	PullFromDevice string `json:"pull_from_device,omitempty"`
}

// ApplyDefaults fills unset device fields.
func (d *DeviceData) ApplyDefaults() {
	if d.Type == "" {
		d.Type = DeviceTypeWXT520
	}
	if d.Baud == 0 {
		d.Baud = DefaultBaud
	}
}

// PollEvery returns the parsed poll interval, or the default when unset.
func (d DeviceData) PollEvery() (time.Duration, error) {
	if d.PollInterval == "" {
		return DefaultPollInterval, nil
	}
	iv, err := time.ParseDuration(d.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("device [%s] poll_interval: %w", d.Name, err)
	}
	if iv <= 0 {
		return 0, fmt.Errorf("device [%s] poll_interval must be positive, got %s", d.Name, d.PollInterval)
	}
	return iv, nil
}

// Validate checks the device has a usable transport and address.
func (d DeviceData) Validate() error {
	if d.Name == "" {
		return errors.New("device must have a name")
	}
	if d.SerialDevice == "" && (d.Hostname == "" || d.Port == "") {
		return fmt.Errorf("device [%s] must define either a serial device or hostname+port", d.Name)
	}
	if d.StationID < 0 {
		return fmt.Errorf("device [%s] station_id must not be negative", d.Name)
	}
	if _, err := d.PollEvery(); err != nil {
		return err
	}
	return nil
}

// findDevice looks a device up by name in a loaded configuration.
func findDevice(devices []DeviceData, name string) (*DeviceData, error) {
	for i := range devices {
		if devices[i].Name == name {
			d := devices[i]
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
}
