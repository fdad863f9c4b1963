package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/chrissnell/vaisalawx/pkg/vaisala"
)

var (
	labelColor   = color.New(color.FgCyan)
	valueColor   = color.New(color.FgWhite)
	numberColor  = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	missingColor = color.New(color.FgRed)
)

type options struct {
	stationID   int
	pressure    vaisala.PressureUnit
	speed       vaisala.SpeedUnit
	temperature vaisala.TemperatureUnit
	showRaw     bool
}

func newOptions(stationID int, pressure, speed, temperature string, showRaw bool) (options, error) {
	o := options{stationID: stationID, showRaw: showRaw}
	var err error
	if o.pressure, err = vaisala.ParsePressureUnit(pressure); err != nil {
		return o, err
	}
	if o.speed, err = vaisala.ParseSpeedUnit(speed); err != nil {
		return o, err
	}
	if o.temperature, err = vaisala.ParseTemperatureUnit(temperature); err != nil {
		return o, err
	}
	return o, nil
}

type stats struct {
	lines, accepted, ignored, failed int
}

// runFile decodes a capture file. The file is closed before returning.
func runFile(path string, out io.Writer, o options) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return run(f, out, o)
}

// run feeds every line of in to a fresh instrument and prints a summary.
func run(in io.Reader, out io.Writer, o options) error {
	inst := vaisala.NewInstrument(o.stationID)
	var st stats

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		st.lines++

		accepted, err := inst.Update(line, time.Now())
		switch {
		case err != nil:
			st.failed++
			warningColor.Fprintf(out, "! %s: %v\n", line, err)
		case !accepted:
			st.ignored++
		default:
			st.accepted++
			if o.showRaw {
				valueColor.Fprintf(out, "  %s\n", line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Fprintf(out, "%d sentences: %d decoded, %d for other stations, %d rejected\n",
		st.lines, st.accepted, st.ignored, st.failed)

	printMeasurement(out, "Wind direction", func() (float64, string, error) {
		m, err := inst.WindDirection(vaisala.Degree)
		return m.Magnitude, m.Unit.String(), err
	})
	printMeasurement(out, "Wind speed", func() (float64, string, error) {
		m, err := inst.WindSpeed(o.speed)
		return m.Magnitude, m.Unit.String(), err
	})
	printMeasurement(out, "Pressure", func() (float64, string, error) {
		m, err := inst.Pressure(o.pressure)
		return m.Magnitude, m.Unit.String(), err
	})
	printMeasurement(out, "Humidity", func() (float64, string, error) {
		m, err := inst.Humidity(vaisala.Percent)
		return m.Magnitude, m.Unit.String(), err
	})
	printMeasurement(out, "Temperature", func() (float64, string, error) {
		m, err := inst.Temperature(o.temperature)
		return m.Magnitude, m.Unit.String(), err
	})
	printMeasurement(out, "Dew point", func() (float64, string, error) {
		m, err := inst.DewPoint(o.temperature)
		return m.Magnitude, m.Unit.String(), err
	})

	return nil
}

func printMeasurement(out io.Writer, label string, read func() (float64, string, error)) {
	labelColor.Fprintf(out, "%-16s", label+":")
	v, unit, err := read()
	if err != nil {
		missingColor.Fprintf(out, "not available (%s)\n", vaisala.ErrorKind(err))
		return
	}
	numberColor.Fprintf(out, "%.2f", v)
	fmt.Fprintf(out, " %s\n", unit)
}
