package vaisala

import (
	"fmt"
	"strings"
)

// Quantity identifies which suffix table a field value is resolved against.
type Quantity int

const (
	Pressure Quantity = iota
	WindSpeed
)

func (q Quantity) String() string {
	switch q {
	case Pressure:
		return "pressure"
	case WindSpeed:
		return "wind speed"
	default:
		return fmt.Sprintf("quantity(%d)", int(q))
	}
}

// UnitEntry is one row of the suffix catalog. Factor multiplies a value in
// the suffix's unit to get pascals (Pressure) or metres per second (WindSpeed).
type UnitEntry struct {
	Suffix byte
	Kind   Quantity
	Unit   string
	Factor float64
}

// Unit is the closed set of measurement units understood by the decoder. It
// is implemented only by the unit types of this package.
type Unit interface {
	comparable
	fmt.Stringer
	Valid() bool
	toCanonical(v float64) float64
	fromCanonical(v float64) float64
}

// Convert converts v from one unit to another unit of the same quantity.
// Converting to the source unit returns v unchanged.
func Convert[U Unit](v float64, from, to U) (float64, error) {
	if !from.Valid() || !to.Valid() {
		return 0, fmt.Errorf("%w: %v to %v", ErrUnsupportedConversion, from, to)
	}
	if from == to {
		return v, nil
	}
	return to.fromCanonical(from.toCanonical(v)), nil
}

const (
	// pascalsPerMmHg is the conventional millimetre of mercury.
	pascalsPerMmHg = 133.322387415

	// mmHgPerInHg is the factor used by the WXT520 for its inHg output.
	// It is deliberately not 25.4.
	mmHgPerInHg = 25.399999705

	metersPerMile         = 1609.344
	metersPerNauticalMile = 1852.0
	secondsPerHour        = 3600.0
)

// PressureUnit is a unit of atmospheric pressure. Pascal is canonical.
type PressureUnit int

const (
	Pascal PressureUnit = iota
	Hectopascal
	Bar
	MillimetersOfMercury
	InchesOfMercury
)

var pressureFactors = [...]float64{
	Pascal:               1,
	Hectopascal:          100,
	Bar:                  100000,
	MillimetersOfMercury: pascalsPerMmHg,
	InchesOfMercury:      mmHgPerInHg * pascalsPerMmHg,
}

func (u PressureUnit) Valid() bool { return u >= Pascal && u <= InchesOfMercury }

func (u PressureUnit) String() string {
	switch u {
	case Pascal:
		return "Pa"
	case Hectopascal:
		return "hPa"
	case Bar:
		return "bar"
	case MillimetersOfMercury:
		return "mmHg"
	case InchesOfMercury:
		return "inHg"
	default:
		return fmt.Sprintf("PressureUnit(%d)", int(u))
	}
}

func (u PressureUnit) toCanonical(v float64) float64   { return v * pressureFactors[u] }
func (u PressureUnit) fromCanonical(v float64) float64 { return v / pressureFactors[u] }

// SpeedUnit is a unit of wind speed. Metres per second is canonical.
type SpeedUnit int

const (
	MetersPerSecond SpeedUnit = iota
	// KilometersPerSecond is what the K suffix has always been mapped to.
	// The WXT520 manual documents K as km/h; see LookupSuffix.
	KilometersPerSecond
	MilesPerHour
	Knots
)

var speedFactors = [...]float64{
	MetersPerSecond:     1,
	KilometersPerSecond: 1000,
	MilesPerHour:        metersPerMile / secondsPerHour,
	Knots:               metersPerNauticalMile / secondsPerHour,
}

func (u SpeedUnit) Valid() bool { return u >= MetersPerSecond && u <= Knots }

func (u SpeedUnit) String() string {
	switch u {
	case MetersPerSecond:
		return "m/s"
	case KilometersPerSecond:
		return "km/s"
	case MilesPerHour:
		return "mph"
	case Knots:
		return "kn"
	default:
		return fmt.Sprintf("SpeedUnit(%d)", int(u))
	}
}

func (u SpeedUnit) toCanonical(v float64) float64   { return v * speedFactors[u] }
func (u SpeedUnit) fromCanonical(v float64) float64 { return v / speedFactors[u] }

// TemperatureUnit is a unit of temperature. Celsius is canonical.
type TemperatureUnit int

const (
	Celsius TemperatureUnit = iota
	Fahrenheit
)

func (u TemperatureUnit) Valid() bool { return u == Celsius || u == Fahrenheit }

func (u TemperatureUnit) String() string {
	switch u {
	case Celsius:
		return "C"
	case Fahrenheit:
		return "F"
	default:
		return fmt.Sprintf("TemperatureUnit(%d)", int(u))
	}
}

func (u TemperatureUnit) toCanonical(v float64) float64 {
	if u == Fahrenheit {
		return (v - 32) * 5 / 9
	}
	return v
}

func (u TemperatureUnit) fromCanonical(v float64) float64 {
	if u == Fahrenheit {
		return v*9/5 + 32
	}
	return v
}

// HumidityUnit is a unit of relative humidity.
type HumidityUnit int

const (
	Percent HumidityUnit = iota
)

func (u HumidityUnit) Valid() bool { return u == Percent }

func (u HumidityUnit) String() string {
	if u == Percent {
		return "%"
	}
	return fmt.Sprintf("HumidityUnit(%d)", int(u))
}

func (u HumidityUnit) toCanonical(v float64) float64   { return v }
func (u HumidityUnit) fromCanonical(v float64) float64 { return v }

// DirectionUnit is a unit of wind direction.
type DirectionUnit int

const (
	Degree DirectionUnit = iota
)

func (u DirectionUnit) Valid() bool { return u == Degree }

func (u DirectionUnit) String() string {
	if u == Degree {
		return "deg"
	}
	return fmt.Sprintf("DirectionUnit(%d)", int(u))
}

func (u DirectionUnit) toCanonical(v float64) float64   { return v }
func (u DirectionUnit) fromCanonical(v float64) float64 { return v }

// RainRateUnit is a unit of precipitation intensity.
type RainRateUnit int

const (
	InchesPerHour RainRateUnit = iota
	MillimetersPerHour
)

func (u RainRateUnit) Valid() bool { return u == InchesPerHour || u == MillimetersPerHour }

func (u RainRateUnit) String() string {
	switch u {
	case InchesPerHour:
		return "in/h"
	case MillimetersPerHour:
		return "mm/h"
	default:
		return fmt.Sprintf("RainRateUnit(%d)", int(u))
	}
}

func (u RainRateUnit) toCanonical(v float64) float64 {
	if u == InchesPerHour {
		return v * 25.4
	}
	return v
}

func (u RainRateUnit) fromCanonical(v float64) float64 {
	if u == InchesPerHour {
		return v / 25.4
	}
	return v
}

// Default output units, one per accessor.
const (
	DefaultPressureUnit    = Pascal
	DefaultSpeedUnit       = MetersPerSecond
	DefaultDirectionUnit   = Degree
	DefaultHumidityUnit    = Percent
	DefaultTemperatureUnit = Celsius
	DefaultRainRateUnit    = InchesPerHour
)

// Suffix tables from the WXT520 user's guide (M210906EN-C, p. 70).
var (
	pressureSuffixes = map[byte]PressureUnit{
		'H': Hectopascal,
		'P': Pascal,
		'B': Bar,
		'M': MillimetersOfMercury,
		'I': InchesOfMercury,
	}

	// K is km/h on the instrument but has always been decoded as km/s.
	// Existing consumers depend on that value, so it is kept as is.
	speedSuffixes = map[byte]SpeedUnit{
		'M': MetersPerSecond,
		'K': KilometersPerSecond,
		'S': MilesPerHour,
		'N': Knots,
	}
)

// LookupSuffix returns the catalog entry for a unit suffix of the given
// quantity. Unknown suffixes fail with ErrUnknownUnitSuffix.
func LookupSuffix(kind Quantity, suffix byte) (UnitEntry, error) {
	switch kind {
	case Pressure:
		if u, ok := pressureSuffixes[suffix]; ok {
			return UnitEntry{Suffix: suffix, Kind: kind, Unit: u.String(), Factor: pressureFactors[u]}, nil
		}
	case WindSpeed:
		if u, ok := speedSuffixes[suffix]; ok {
			return UnitEntry{Suffix: suffix, Kind: kind, Unit: u.String(), Factor: speedFactors[u]}, nil
		}
	}
	return UnitEntry{}, fmt.Errorf("%w: %q for %v", ErrUnknownUnitSuffix, suffix, kind)
}

// temperatureUnitForSuffix is not table driven: C is Celsius and any other
// suffix is taken as Fahrenheit.
func temperatureUnitForSuffix(suffix byte) TemperatureUnit {
	if suffix == 'C' {
		return Celsius
	}
	return Fahrenheit
}

func parseUnit[U Unit](s string, names map[string]U) (U, error) {
	if u, ok := names[strings.ToLower(strings.TrimSpace(s))]; ok {
		return u, nil
	}
	var zero U
	return zero, fmt.Errorf("%w: %q", ErrUnsupportedOutputUnit, s)
}

// ParsePressureUnit parses a pressure unit name such as "hPa" or "inHg".
func ParsePressureUnit(s string) (PressureUnit, error) {
	return parseUnit(s, map[string]PressureUnit{
		"pa": Pascal, "hpa": Hectopascal, "mbar": Hectopascal, "bar": Bar,
		"mmhg": MillimetersOfMercury, "inhg": InchesOfMercury,
	})
}

// ParseSpeedUnit parses a wind speed unit name such as "m/s" or "kn".
func ParseSpeedUnit(s string) (SpeedUnit, error) {
	return parseUnit(s, map[string]SpeedUnit{
		"m/s": MetersPerSecond, "mps": MetersPerSecond, "km/s": KilometersPerSecond,
		"mph": MilesPerHour, "mi/h": MilesPerHour, "kn": Knots, "knots": Knots, "kt": Knots,
	})
}

// ParseTemperatureUnit parses "C" or "F".
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	return parseUnit(s, map[string]TemperatureUnit{
		"c": Celsius, "celsius": Celsius, "degc": Celsius,
		"f": Fahrenheit, "fahrenheit": Fahrenheit, "degf": Fahrenheit,
	})
}

// ParseRainRateUnit parses "in/h" or "mm/h".
func ParseRainRateUnit(s string) (RainRateUnit, error) {
	return parseUnit(s, map[string]RainRateUnit{
		"in/h": InchesPerHour, "inh": InchesPerHour, "in/hr": InchesPerHour,
		"mm/h": MillimetersPerHour, "mmh": MillimetersPerHour, "mm/hr": MillimetersPerHour,
	})
}

// ParseHumidityUnit parses "%" or "percent".
func ParseHumidityUnit(s string) (HumidityUnit, error) {
	return parseUnit(s, map[string]HumidityUnit{"%": Percent, "percent": Percent, "pct": Percent})
}

// ParseDirectionUnit parses "deg" or "degree".
func ParseDirectionUnit(s string) (DirectionUnit, error) {
	return parseUnit(s, map[string]DirectionUnit{"deg": Degree, "degree": Degree, "degrees": Degree})
}
