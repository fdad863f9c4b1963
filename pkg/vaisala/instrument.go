package vaisala

import (
	"fmt"
	"time"
)

// Message ids of the WXT520 data blocks the accessors read from.
const (
	WindMessageID = "1"
	PTUMessageID  = "2"
)

// Field codes read by the accessors.
const (
	FieldWindDirection = "Dm"
	FieldWindSpeed     = "Sm"
	FieldPressure      = "Pa"
	FieldHumidity      = "Ua"
	FieldTemperature   = "Ta"
)

// Measurement is a converted value together with the arrival time of the
// sentence it was decoded from.
type Measurement[U Unit] struct {
	Timestamp time.Time
	Magnitude float64
	Unit      U
}

func (m Measurement[U]) String() string {
	return fmt.Sprintf("%g %v", m.Magnitude, m.Unit)
}

// Instrument decodes sentences for a single station address.
type Instrument struct {
	stationID int
	store     *RecordStore
}

// NewInstrument returns an Instrument that accepts sentences addressed to
// stationID and ignores all others.
func NewInstrument(stationID int) *Instrument {
	return &Instrument{
		stationID: stationID,
		store:     NewRecordStore(),
	}
}

// StationID returns the configured station address.
func (i *Instrument) StationID() int {
	return i.stationID
}

// Update decodes line and stores its fields as the latest record for the
// sentence's message id, stamped with now. Sentences for another station are
// dropped and reported with accepted == false and a nil error.
func (i *Instrument) Update(line string, now time.Time) (accepted bool, err error) {
	h, err := ParseHeader(line)
	if err != nil {
		return false, err
	}
	if h.StationID != i.stationID {
		return false, nil
	}

	i.store.Put(Record{
		MessageID:  h.MessageID,
		Fields:     ParseFields(line),
		ObservedAt: now,
	})
	return true, nil
}

// Record returns a copy of the latest record for messageID.
func (i *Instrument) Record(messageID string) (Record, error) {
	return i.store.Get(messageID)
}

// Store exposes the underlying record store.
func (i *Instrument) Store() *RecordStore {
	return i.store
}

// field fetches one raw field and splits it into magnitude and suffix.
func (i *Instrument) field(messageID, code string) (Record, float64, byte, error) {
	r, err := i.store.Get(messageID)
	if err != nil {
		return Record{}, 0, 0, err
	}

	v, suffix, err := decodeField(r, code)
	if err != nil {
		return Record{}, 0, 0, err
	}
	return r, v, suffix, nil
}

// decodeField splits one field of an already fetched record.
func decodeField(r Record, code string) (float64, byte, error) {
	raw, ok := r.Field(code)
	if !ok {
		return 0, 0, fmt.Errorf("%w: field %s missing from message %q", ErrMalformedValue, code, r.MessageID)
	}
	return splitValue(code, raw)
}

func unsupported[U Unit](u U) error {
	return fmt.Errorf("%w: %v", ErrUnsupportedOutputUnit, u)
}

func measure[U Unit](r Record, v float64, from, to U) (Measurement[U], error) {
	out, err := Convert(v, from, to)
	if err != nil {
		return Measurement[U]{}, err
	}
	return Measurement[U]{Timestamp: r.ObservedAt, Magnitude: out, Unit: to}, nil
}

// measureEntry converts v, expressed in the catalog entry's unit, to unit.
func measureEntry[U Unit](r Record, v float64, e UnitEntry, unit U) Measurement[U] {
	out := v
	if unit.String() != e.Unit {
		out = unit.fromCanonical(v * e.Factor)
	}
	return Measurement[U]{Timestamp: r.ObservedAt, Magnitude: out, Unit: unit}
}

// WindDirection returns the average wind direction (Dm). The unit suffix is
// not consulted; the WXT520 reports direction in degrees only.
func (i *Instrument) WindDirection(unit DirectionUnit) (Measurement[DirectionUnit], error) {
	if !unit.Valid() {
		return Measurement[DirectionUnit]{}, unsupported(unit)
	}

	r, v, _, err := i.field(WindMessageID, FieldWindDirection)
	if err != nil {
		return Measurement[DirectionUnit]{}, err
	}
	return measure(r, v, Degree, unit)
}

// WindSpeed returns the average wind speed (Sm).
func (i *Instrument) WindSpeed(unit SpeedUnit) (Measurement[SpeedUnit], error) {
	if !unit.Valid() {
		return Measurement[SpeedUnit]{}, unsupported(unit)
	}

	r, v, suffix, err := i.field(WindMessageID, FieldWindSpeed)
	if err != nil {
		return Measurement[SpeedUnit]{}, err
	}
	e, err := LookupSuffix(WindSpeed, suffix)
	if err != nil {
		return Measurement[SpeedUnit]{}, err
	}
	return measureEntry(r, v, e, unit), nil
}

// Pressure returns the air pressure (Pa).
func (i *Instrument) Pressure(unit PressureUnit) (Measurement[PressureUnit], error) {
	if !unit.Valid() {
		return Measurement[PressureUnit]{}, unsupported(unit)
	}

	r, v, suffix, err := i.field(PTUMessageID, FieldPressure)
	if err != nil {
		return Measurement[PressureUnit]{}, err
	}
	e, err := LookupSuffix(Pressure, suffix)
	if err != nil {
		return Measurement[PressureUnit]{}, err
	}
	return measureEntry(r, v, e, unit), nil
}

// Humidity returns the relative humidity (Ua). The source is always treated
// as percent regardless of its suffix.
func (i *Instrument) Humidity(unit HumidityUnit) (Measurement[HumidityUnit], error) {
	if !unit.Valid() {
		return Measurement[HumidityUnit]{}, unsupported(unit)
	}

	r, v, _, err := i.field(PTUMessageID, FieldHumidity)
	if err != nil {
		return Measurement[HumidityUnit]{}, err
	}
	return measure(r, v, Percent, unit)
}

// Temperature returns the air temperature (Ta).
func (i *Instrument) Temperature(unit TemperatureUnit) (Measurement[TemperatureUnit], error) {
	if !unit.Valid() {
		return Measurement[TemperatureUnit]{}, unsupported(unit)
	}

	r, v, suffix, err := i.field(PTUMessageID, FieldTemperature)
	if err != nil {
		return Measurement[TemperatureUnit]{}, err
	}
	return measure(r, v, temperatureUnitForSuffix(suffix), unit)
}

// RainRate is not decoded yet. It validates unit and then always fails with
// ErrNotImplemented.
func (i *Instrument) RainRate(unit RainRateUnit) (Measurement[RainRateUnit], error) {
	if !unit.Valid() {
		return Measurement[RainRateUnit]{}, unsupported(unit)
	}
	return Measurement[RainRateUnit]{}, fmt.Errorf("rain rate: %w", ErrNotImplemented)
}

// IsRaining always reports false until the precipitation message is decoded.
func (i *Instrument) IsRaining() bool {
	return false
}
