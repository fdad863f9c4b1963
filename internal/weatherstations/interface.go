package weatherstations

import (
	"github.com/chrissnell/vaisalawx/pkg/vaisala"
)

// WeatherStation is an interface that provides standard methods for various
// weather station backends
type WeatherStation interface {
	StartWeatherStation() error
	StopWeatherStation() error
	StationName() string
}

// InstrumentProvider is implemented by stations that decode their own
// sentences and can hand out the live decoder for on-demand queries.
type InstrumentProvider interface {
	Instrument() *vaisala.Instrument
}
