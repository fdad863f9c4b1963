package vaisala

import (
	"bufio"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, time.March, 14, 6, 30, 0, 0, time.UTC)

// replay feeds a fixture through Update with the line endings intact, one
// second apart.
func replay(t *testing.T, inst *Instrument, clock *clockwork.FakeClock, path string) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			_, uerr := inst.Update(line, clock.Now())
			require.NoError(t, uerr, "line %q", line)
			clock.Advance(time.Second)
		}
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err)
	}
}

func TestInstrument_WindScenario(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	inst := NewInstrument(0)

	accepted, err := inst.Update("0R1,Dm=045#,Sm=1.2M,\r", clock.Now())
	require.NoError(t, err)
	require.True(t, accepted)

	dir, err := inst.WindDirection(Degree)
	require.NoError(t, err)
	assert.InDelta(t, 45.0, dir.Magnitude, 1e-9)
	assert.Equal(t, Degree, dir.Unit)
	assert.Equal(t, testEpoch, dir.Timestamp)

	speed, err := inst.WindSpeed(MetersPerSecond)
	require.NoError(t, err)
	assert.InDelta(t, 1.2, speed.Magnitude, 1e-9)
	assert.Equal(t, MetersPerSecond, speed.Unit)
	assert.Equal(t, testEpoch, speed.Timestamp)
}

func TestInstrument_CompositeMessageIsNotTheWindBlock(t *testing.T) {
	// 0R0 is addressed to message "0"; the wind accessors only read "1".
	inst := NewInstrument(0)

	accepted, err := inst.Update("0R0,Dm=045#,Sm=1.2M#,\r", testEpoch)
	require.NoError(t, err)
	require.True(t, accepted)

	r, err := inst.Record("0")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Dm": "045#", "Sm": "1.2M#"}, r.Fields)

	_, err = inst.WindDirection(Degree)
	assert.ErrorIs(t, err, ErrRecordNotAvailable)
	_, err = inst.WindSpeed(MetersPerSecond)
	assert.ErrorIs(t, err, ErrRecordNotAvailable)
}

func TestInstrument_RecordRoundTrip(t *testing.T) {
	tests := []struct {
		line      string
		messageID string
		fields    map[string]string
	}{
		{
			line:      "0R1,Dn=236D,Dm=283D,Dx=031D,Sn=0.0M,Sm=1.0M,Sx=2.2M\r\n",
			messageID: "1",
			fields:    map[string]string{"Dn": "236D", "Dm": "283D", "Dx": "031D", "Sn": "0.0M", "Sm": "1.0M", "Sx": "2.2M"},
		},
		{
			line:      "0R2,Ta=23.6C,Ua=14.2P,Pa=1026.6H\r\n",
			messageID: "2",
			fields:    map[string]string{"Ta": "23.6C", "Ua": "14.2P", "Pa": "1026.6H"},
		},
		{
			line:      "0R9,Zz=1Q,\r",
			messageID: "9",
			fields:    map[string]string{"Zz": "1Q"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.messageID, func(t *testing.T) {
			inst := NewInstrument(0)
			_, err := inst.Update(tt.line, testEpoch)
			require.NoError(t, err)

			r, err := inst.Record(tt.messageID)
			require.NoError(t, err)
			assert.Equal(t, tt.messageID, r.MessageID)
			assert.Equal(t, tt.fields, r.Fields)
			assert.Equal(t, testEpoch, r.ObservedAt)
		})
	}
}

func TestInstrument_OtherStationIgnored(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	inst := NewInstrument(0)

	accepted, err := inst.Update("5R1,Dm=200D,Sm=9.9M\r\n", clock.Now())
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, 0, inst.Store().Len())

	_, err = inst.WindDirection(Degree)
	assert.ErrorIs(t, err, ErrRecordNotAvailable)

	_, err = inst.Update("0R1,Dm=045D,Sm=1.2M\r\n", clock.Now())
	require.NoError(t, err)
	clock.Advance(time.Minute)

	accepted, err = inst.Update("5R1,Dm=200D,Sm=9.9M\r\n", clock.Now())
	require.NoError(t, err)
	assert.False(t, accepted)

	dir, err := inst.WindDirection(Degree)
	require.NoError(t, err)
	assert.InDelta(t, 45.0, dir.Magnitude, 1e-9)
	assert.Equal(t, testEpoch, dir.Timestamp)
	assert.Equal(t, 1, inst.Store().Len())
}

func TestInstrument_MalformedHeaderReturned(t *testing.T) {
	inst := NewInstrument(0)

	accepted, err := inst.Update("no header here\r\n", testEpoch)
	assert.False(t, accepted)
	assert.ErrorIs(t, err, ErrMalformedHeader)
	assert.Equal(t, 0, inst.Store().Len())
}

func TestInstrument_NewRecordReplacesOld(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	inst := NewInstrument(0)

	_, err := inst.Update("0R2,Ta=1.0C,Ua=2.0P,Pa=3.0H\r\n", clock.Now())
	require.NoError(t, err)
	clock.Advance(10 * time.Second)
	_, err = inst.Update("0R2,Ta=5.0C\r\n", clock.Now())
	require.NoError(t, err)

	temp, err := inst.Temperature(Celsius)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, temp.Magnitude, 1e-9)
	assert.Equal(t, testEpoch.Add(10*time.Second), temp.Timestamp)

	// Fields are not merged across sentences.
	_, err = inst.Humidity(Percent)
	assert.ErrorIs(t, err, ErrMalformedValue)
}

func TestInstrument_UnsupportedOutputUnit(t *testing.T) {
	// Checked before the record lookup, so an empty instrument still reports
	// the unit problem rather than a missing record.
	for name, inst := range map[string]*Instrument{
		"empty":     NewInstrument(0),
		"populated": populated(t),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := inst.Pressure(PressureUnit(99))
			assert.ErrorIs(t, err, ErrUnsupportedOutputUnit)
			_, err = inst.WindSpeed(SpeedUnit(99))
			assert.ErrorIs(t, err, ErrUnsupportedOutputUnit)
			_, err = inst.WindDirection(DirectionUnit(99))
			assert.ErrorIs(t, err, ErrUnsupportedOutputUnit)
			_, err = inst.Humidity(HumidityUnit(99))
			assert.ErrorIs(t, err, ErrUnsupportedOutputUnit)
			_, err = inst.Temperature(TemperatureUnit(99))
			assert.ErrorIs(t, err, ErrUnsupportedOutputUnit)
			_, err = inst.DewPoint(TemperatureUnit(99))
			assert.ErrorIs(t, err, ErrUnsupportedOutputUnit)
			_, err = inst.RainRate(RainRateUnit(99))
			assert.ErrorIs(t, err, ErrUnsupportedOutputUnit)
		})
	}
}

func populated(t *testing.T) *Instrument {
	t.Helper()
	inst := NewInstrument(0)
	for _, line := range []string{
		"0R1,Dm=283D,Sm=1.0M\r\n",
		"0R2,Ta=23.6C,Ua=14.2P,Pa=1026.6H\r\n",
	} {
		_, err := inst.Update(line, testEpoch)
		require.NoError(t, err)
	}
	return inst
}

func TestInstrument_RecordNotAvailable(t *testing.T) {
	inst := NewInstrument(0)

	_, err := inst.Pressure(Pascal)
	assert.ErrorIs(t, err, ErrRecordNotAvailable)
	_, err = inst.Temperature(Celsius)
	assert.ErrorIs(t, err, ErrRecordNotAvailable)
	_, err = inst.Humidity(Percent)
	assert.ErrorIs(t, err, ErrRecordNotAvailable)
	_, err = inst.DewPoint(Celsius)
	assert.ErrorIs(t, err, ErrRecordNotAvailable)

	// A wind block alone does not make PTU values available.
	_, err = inst.Update("0R1,Dm=283D,Sm=1.0M\r\n", testEpoch)
	require.NoError(t, err)
	_, err = inst.Pressure(Pascal)
	assert.ErrorIs(t, err, ErrRecordNotAvailable)
}

func TestInstrument_Pressure(t *testing.T) {
	inst := populated(t)

	pa, err := inst.Pressure(Pascal)
	require.NoError(t, err)
	assert.InDelta(t, 102660, pa.Magnitude, 1e-6)

	hpa, err := inst.Pressure(Hectopascal)
	require.NoError(t, err)
	assert.InDelta(t, 1026.6, hpa.Magnitude, 1e-9)

	inhg, err := inst.Pressure(InchesOfMercury)
	require.NoError(t, err)
	assert.InDelta(t, 30.3155, inhg.Magnitude, 1e-3)
	assert.Equal(t, InchesOfMercury, inhg.Unit)

	for _, line := range []string{"0R2,Pa=760.0M\r\n", "0R2,Pa=1.01325B\r\n", "0R2,Pa=101325P\r\n"} {
		_, err := inst.Update(line, testEpoch)
		require.NoError(t, err)
		hpa, err := inst.Pressure(Hectopascal)
		require.NoError(t, err)
		assert.InDelta(t, 1013.25, hpa.Magnitude, 1e-3, line)
	}
}

func TestInstrument_AccessorsFollowCatalog(t *testing.T) {
	tests := []struct {
		kind   Quantity
		line   string
		suffix byte
		same   func(*Instrument) (float64, error)
		canon  func(*Instrument) (float64, error)
	}{
		{Pressure, "0R2,Pa=29.92I\r\n", 'I', pressureIn(InchesOfMercury), pressureIn(Pascal)},
		{Pressure, "0R2,Pa=760.0M\r\n", 'M', pressureIn(MillimetersOfMercury), pressureIn(Pascal)},
		{WindSpeed, "0R1,Sm=12.0N\r\n", 'N', speedIn(Knots), speedIn(MetersPerSecond)},
		{WindSpeed, "0R1,Sm=7.5S\r\n", 'S', speedIn(MilesPerHour), speedIn(MetersPerSecond)},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			inst := NewInstrument(0)
			_, err := inst.Update(tt.line, testEpoch)
			require.NoError(t, err)

			raw, suffix, err := decodeField(mustRecord(t, inst, tt.kind), fieldFor(tt.kind))
			require.NoError(t, err)
			require.Equal(t, tt.suffix, suffix)

			e, err := LookupSuffix(tt.kind, suffix)
			require.NoError(t, err)

			same, err := tt.same(inst)
			require.NoError(t, err)
			assert.Equal(t, raw, same, "the source unit is returned untouched")

			canon, err := tt.canon(inst)
			require.NoError(t, err)
			assert.InDelta(t, raw*e.Factor, canon, 1e-9)
		})
	}
}

func pressureIn(u PressureUnit) func(*Instrument) (float64, error) {
	return func(i *Instrument) (float64, error) {
		m, err := i.Pressure(u)
		return m.Magnitude, err
	}
}

func speedIn(u SpeedUnit) func(*Instrument) (float64, error) {
	return func(i *Instrument) (float64, error) {
		m, err := i.WindSpeed(u)
		return m.Magnitude, err
	}
}

func mustRecord(t *testing.T, inst *Instrument, kind Quantity) Record {
	t.Helper()
	id := PTUMessageID
	if kind == WindSpeed {
		id = WindMessageID
	}
	r, err := inst.Record(id)
	require.NoError(t, err)
	return r
}

func fieldFor(kind Quantity) string {
	if kind == WindSpeed {
		return FieldWindSpeed
	}
	return FieldPressure
}

func TestInstrument_PressureUnknownSuffix(t *testing.T) {
	inst := NewInstrument(0)
	_, err := inst.Update("0R2,Pa=1026.6X\r\n", testEpoch)
	require.NoError(t, err)

	_, err = inst.Pressure(Pascal)
	assert.ErrorIs(t, err, ErrUnknownUnitSuffix)
}

func TestInstrument_WindSpeedSuffixes(t *testing.T) {
	tests := []struct {
		line string
		want float64 // m/s
	}{
		{"0R1,Sm=3.0M\r\n", 3.0},
		{"0R1,Sm=10.0N\r\n", 5.144444},
		{"0R1,Sm=10.0S\r\n", 4.4704},
		// K is decoded as km/s, not the km/h the instrument sends.
		{"0R1,Sm=3.6K\r\n", 3600},
	}

	for _, tt := range tests {
		inst := NewInstrument(0)
		_, err := inst.Update(tt.line, testEpoch)
		require.NoError(t, err)

		got, err := inst.WindSpeed(MetersPerSecond)
		require.NoError(t, err, tt.line)
		assert.InDelta(t, tt.want, got.Magnitude, 1e-5, tt.line)
	}

	inst := NewInstrument(0)
	_, err := inst.Update("0R1,Sm=3.0#\r\n", testEpoch)
	require.NoError(t, err)
	_, err = inst.WindSpeed(MetersPerSecond)
	assert.ErrorIs(t, err, ErrUnknownUnitSuffix)
}

func TestInstrument_Temperature(t *testing.T) {
	inst := NewInstrument(0)

	_, err := inst.Update("0R2,Ta=74.5F\r\n", testEpoch)
	require.NoError(t, err)
	c, err := inst.Temperature(Celsius)
	require.NoError(t, err)
	assert.InDelta(t, 23.6111, c.Magnitude, 1e-4)

	_, err = inst.Update("0R2,Ta=23.6C\r\n", testEpoch)
	require.NoError(t, err)
	f, err := inst.Temperature(Fahrenheit)
	require.NoError(t, err)
	assert.InDelta(t, 74.48, f.Magnitude, 1e-9)
	assert.Equal(t, Fahrenheit, f.Unit)

	_, err = inst.Update("0R2,Ta=abcC\r\n", testEpoch)
	require.NoError(t, err)
	_, err = inst.Temperature(Celsius)
	assert.ErrorIs(t, err, ErrMalformedValue)
}

func TestInstrument_HumidityIgnoresSuffix(t *testing.T) {
	inst := NewInstrument(0)
	_, err := inst.Update("0R2,Ua=14.2X\r\n", testEpoch)
	require.NoError(t, err)

	h, err := inst.Humidity(Percent)
	require.NoError(t, err)
	assert.InDelta(t, 14.2, h.Magnitude, 1e-9)
}

func TestInstrument_Rain(t *testing.T) {
	inst := populated(t)

	_, err := inst.RainRate(InchesPerHour)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.False(t, inst.IsRaining())
}

func TestInstrument_ReplayFixture(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	inst := NewInstrument(0)
	replay(t, inst, clock, "testdata/example_data.txt")

	assert.ElementsMatch(t, []string{"1", "2", "3", "5"}, inst.Store().MessageIDs())

	dir, err := inst.WindDirection(Degree)
	require.NoError(t, err)
	assert.InDelta(t, 283, dir.Magnitude, 1e-9)
	assert.Equal(t, testEpoch, dir.Timestamp)

	speed, err := inst.WindSpeed(MetersPerSecond)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, speed.Magnitude, 1e-9)

	temp, err := inst.Temperature(Celsius)
	require.NoError(t, err)
	assert.InDelta(t, 23.6, temp.Magnitude, 1e-9)
	assert.Equal(t, testEpoch.Add(time.Second), temp.Timestamp)

	h, err := inst.Humidity(Percent)
	require.NoError(t, err)
	assert.InDelta(t, 14.2, h.Magnitude, 1e-9)

	p, err := inst.Pressure(Hectopascal)
	require.NoError(t, err)
	assert.InDelta(t, 1026.6, p.Magnitude, 1e-9)

	other := NewInstrument(1)
	replay(t, other, clockwork.NewFakeClockAt(testEpoch), "testdata/example_data.txt")

	dir, err = other.WindDirection(Degree)
	require.NoError(t, err)
	assert.InDelta(t, 110, dir.Magnitude, 1e-9)

	temp, err = other.Temperature(Celsius)
	require.NoError(t, err)
	assert.InDelta(t, -4.0, temp.Magnitude, 1e-9)
}
