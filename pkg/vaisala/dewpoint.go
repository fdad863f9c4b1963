package vaisala

import (
	"fmt"
	"math"
)

// Arden Buck constants, Celsius referenced.
const (
	buckB = 18.678
	buckC = 257.14
	buckD = 235.5
)

// DewPointCelsius computes the dew point from an air temperature in Celsius
// and a relative humidity in percent using the Arden Buck approximation.
func DewPointCelsius(t, rh float64) (float64, error) {
	if rh <= 0 || math.IsNaN(rh) || math.IsNaN(t) {
		return 0, fmt.Errorf("%w: dew point undefined for T=%g RH=%g", ErrDomain, t, rh)
	}

	gamma := math.Log(rh / 100 * math.Exp((buckB-t/buckD)*(t/(buckC+t))))
	tdp := buckC * gamma / (buckB - gamma)

	if math.IsNaN(tdp) || math.IsInf(tdp, 0) {
		return 0, fmt.Errorf("%w: dew point undefined for T=%g RH=%g", ErrDomain, t, rh)
	}
	return tdp, nil
}

// DewPoint derives the dew point from the current temperature and humidity.
// The timestamp is that of the temperature record.
func (i *Instrument) DewPoint(unit TemperatureUnit) (Measurement[TemperatureUnit], error) {
	if !unit.Valid() {
		return Measurement[TemperatureUnit]{}, unsupported(unit)
	}

	// Temperature and humidity are taken from one copy of the PTU record.
	r, err := i.store.Get(PTUMessageID)
	if err != nil {
		return Measurement[TemperatureUnit]{}, err
	}
	tv, suffix, err := decodeField(r, FieldTemperature)
	if err != nil {
		return Measurement[TemperatureUnit]{}, err
	}
	t, err := measure(r, tv, temperatureUnitForSuffix(suffix), Celsius)
	if err != nil {
		return Measurement[TemperatureUnit]{}, err
	}
	rh, _, err := decodeField(r, FieldHumidity)
	if err != nil {
		return Measurement[TemperatureUnit]{}, err
	}

	tdp, err := DewPointCelsius(t.Magnitude, rh)
	if err != nil {
		return Measurement[TemperatureUnit]{}, err
	}

	out, err := Convert(tdp, Celsius, unit)
	if err != nil {
		return Measurement[TemperatureUnit]{}, err
	}
	return Measurement[TemperatureUnit]{Timestamp: t.Timestamp, Magnitude: out, Unit: unit}, nil
}
