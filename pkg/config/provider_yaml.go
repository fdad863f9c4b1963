package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// DeviceYAML is the on-disk shape of a device entry. Enabled is a pointer so
// that omitting it means enabled.
type DeviceYAML struct {
	Name              string `yaml:"name"`
	Type              string `yaml:"type,omitempty"`
	Enabled           *bool  `yaml:"enabled,omitempty"`
	Hostname          string `yaml:"hostname,omitempty"`
	Port              string `yaml:"port,omitempty"`
	SerialDevice      string `yaml:"serial_device,omitempty"`
	Baud              int    `yaml:"baud,omitempty"`
	StationID         int    `yaml:"station_id,omitempty"`
	WindDirCorrection int16  `yaml:"wind_dir_correction,omitempty"`
	PollInterval      string `yaml:"poll_interval,omitempty"`
}

// ControllerYAML is the on-disk shape of a controller entry.
type ControllerYAML struct {
	Type   string `yaml:"type,omitempty"`
	Status *struct {
		ListenAddr     string `yaml:"listen_addr,omitempty"`
		Port           int    `yaml:"port,omitempty"`
		PullFromDevice string `yaml:"pull_from_device,omitempty"`
	} `yaml:"status,omitempty"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return parseYAML(cfgFile)
}

func parseYAML(b []byte) (*ConfigData, error) {
	var yamlConfig struct {
		Devices     []DeviceYAML     `yaml:"devices"`
		Controllers []ControllerYAML `yaml:"controllers,omitempty"`
	}

	if err := yaml.UnmarshalStrict(b, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Devices:     make([]DeviceData, len(yamlConfig.Devices)),
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	for i, device := range yamlConfig.Devices {
		enabled := true
		if device.Enabled != nil {
			enabled = *device.Enabled
		}
		config.Devices[i] = DeviceData{
			Name:              device.Name,
			Type:              device.Type,
			Enabled:           enabled,
			Hostname:          device.Hostname,
			Port:              device.Port,
			SerialDevice:      device.SerialDevice,
			Baud:              device.Baud,
			StationID:         device.StationID,
			WindDirCorrection: device.WindDirCorrection,
			PollInterval:      device.PollInterval,
		}
		config.Devices[i].ApplyDefaults()
	}

	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.Status != nil {
			config.Controllers[i].Status = &StatusServerData{
				ListenAddr:     controller.Status.ListenAddr,
				Port:           controller.Status.Port,
				PullFromDevice: controller.Status.PullFromDevice,
			}
		}
	}

	return config, nil
}

// GetDevices returns device configurations
func (y *YAMLProvider) GetDevices() ([]DeviceData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Devices, nil
}

// GetDevice returns the named device
func (y *YAMLProvider) GetDevice(name string) (*DeviceData, error) {
	devices, err := y.GetDevices()
	if err != nil {
		return nil, err
	}
	return findDevice(devices, name)
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
