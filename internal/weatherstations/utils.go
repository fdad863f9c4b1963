package weatherstations

import (
	"fmt"
	"math"

	"github.com/chrissnell/vaisalawx/pkg/config"
)

// CalculateWindChill calculates wind chill temperature using the NWS formula.
// Returns tempF unchanged when wind chill doesn't apply (temp > 50°F or wind < 3 mph).
func CalculateWindChill(tempF, windSpeedMph float32) float32 {
	if tempF > 50 || windSpeedMph < 3 {
		return tempF
	}
	v := float32(math.Pow(float64(windSpeedMph), 0.16))
	return 35.74 + 0.6215*tempF - 35.75*v + 0.4275*tempF*v
}

// CalculateHeatIndex calculates heat index using the NWS regression.
// Returns tempF unchanged when heat index doesn't apply (temp < 80°F).
func CalculateHeatIndex(tempF, humidity float32) float32 {
	if tempF < 80 {
		return tempF
	}

	c1 := float32(-42.379)
	c2 := float32(2.04901523)
	c3 := float32(10.14333127)
	c4 := float32(-0.22475541)
	c5 := float32(-0.00683783)
	c6 := float32(-0.05481717)
	c7 := float32(0.00122874)
	c8 := float32(0.00085282)
	c9 := float32(-0.00000199)

	return c1 + c2*tempF + c3*humidity + c4*tempF*humidity + c5*tempF*tempF +
		c6*humidity*humidity + c7*tempF*tempF*humidity + c8*tempF*humidity*humidity +
		c9*tempF*tempF*humidity*humidity
}

// CorrectWindDirection rotates a reported direction by a mounting offset and
// wraps the result into [0, 360).
func CorrectWindDirection(dir float64, correction int16) float64 {
	if correction == 0 {
		return dir
	}
	corrected := math.Mod(dir+float64(correction), 360)
	if corrected < 0 {
		corrected += 360
	}
	return corrected
}

// LoadDeviceConfig loads configuration for a specific device and checks that
// it can be reached.
func LoadDeviceConfig(configProvider config.ConfigProvider, deviceName string) (config.DeviceData, error) {
	device, err := configProvider.GetDevice(deviceName)
	if err != nil {
		return config.DeviceData{}, fmt.Errorf("station [%s] failed to load config: %w", deviceName, err)
	}
	if err := device.Validate(); err != nil {
		return config.DeviceData{}, err
	}
	return *device, nil
}
