package status

import (
	"fmt"

	"github.com/chrissnell/vaisalawx/pkg/vaisala"
)

func unitOr[U vaisala.Unit](name string, def U, parse func(string) (U, error)) (U, error) {
	if name == "" {
		return def, nil
	}
	return parse(name)
}

func measured[U vaisala.Unit](m vaisala.Measurement[U], err error) (conditionResponse, error) {
	if err != nil {
		return conditionResponse{}, err
	}
	return conditionResponse{Value: m.Magnitude, Unit: m.Unit.String(), Timestamp: m.Timestamp}, nil
}

// readCondition dispatches a quantity name to the matching accessor.
func readCondition(inst *vaisala.Instrument, quantity, unit string) (conditionResponse, error) {
	switch quantity {
	case "temperature":
		u, err := unitOr(unit, vaisala.DefaultTemperatureUnit, vaisala.ParseTemperatureUnit)
		if err != nil {
			return conditionResponse{}, err
		}
		m, err := inst.Temperature(u)
		return measured(m, err)
	case "dew_point":
		u, err := unitOr(unit, vaisala.DefaultTemperatureUnit, vaisala.ParseTemperatureUnit)
		if err != nil {
			return conditionResponse{}, err
		}
		m, err := inst.DewPoint(u)
		return measured(m, err)
	case "humidity":
		u, err := unitOr(unit, vaisala.DefaultHumidityUnit, vaisala.ParseHumidityUnit)
		if err != nil {
			return conditionResponse{}, err
		}
		m, err := inst.Humidity(u)
		return measured(m, err)
	case "pressure":
		u, err := unitOr(unit, vaisala.DefaultPressureUnit, vaisala.ParsePressureUnit)
		if err != nil {
			return conditionResponse{}, err
		}
		m, err := inst.Pressure(u)
		return measured(m, err)
	case "wind_speed":
		u, err := unitOr(unit, vaisala.DefaultSpeedUnit, vaisala.ParseSpeedUnit)
		if err != nil {
			return conditionResponse{}, err
		}
		m, err := inst.WindSpeed(u)
		return measured(m, err)
	case "wind_direction":
		u, err := unitOr(unit, vaisala.DefaultDirectionUnit, vaisala.ParseDirectionUnit)
		if err != nil {
			return conditionResponse{}, err
		}
		m, err := inst.WindDirection(u)
		return measured(m, err)
	case "rain_rate":
		u, err := unitOr(unit, vaisala.DefaultRainRateUnit, vaisala.ParseRainRateUnit)
		if err != nil {
			return conditionResponse{}, err
		}
		m, err := inst.RainRate(u)
		return measured(m, err)
	default:
		return conditionResponse{}, fmt.Errorf("%w: %q", errUnknownQuantity, quantity)
	}
}
