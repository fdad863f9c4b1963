package interfaces

import "github.com/chrissnell/vaisalawx/internal/weatherstations"

// WeatherStationManager defines the interface for managing weather stations
type WeatherStationManager interface {
	StartWeatherStations() error
	StopWeatherStations()
	AddWeatherStation(deviceName string) error
	RemoveWeatherStation(deviceName string) error
	ReloadWeatherStationsConfig() error
	GetStation(deviceName string) weatherstations.WeatherStation
	StationNames() []string
}
