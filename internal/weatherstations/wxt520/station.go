// Package wxt520 runs a Vaisala WXT520 transmitter as a weather station. The
// transmitter is left in automatic mode and talks on its own; every sentence
// it sends is decoded into the station's Instrument, and a Reading is built
// from the latest records once per poll interval.
package wxt520

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	serial "github.com/tarm/goserial"
	"go.uber.org/zap"

	"github.com/chrissnell/vaisalawx/internal/observability"
	"github.com/chrissnell/vaisalawx/internal/types"
	"github.com/chrissnell/vaisalawx/internal/weatherstations"
	"github.com/chrissnell/vaisalawx/pkg/config"
	"github.com/chrissnell/vaisalawx/pkg/vaisala"
)

// StationType is the value reported in Reading.StationType.
const StationType = "vaisala-wxt520"

const (
	serialRetryDelay  = 30 * time.Second
	networkRetryDelay = 5 * time.Second
	dialTimeout       = 10 * time.Second
	readTimeout       = 30 * time.Second
)

// Dialer opens the byte stream to the transmitter.
type Dialer func(ctx context.Context) (io.ReadWriteCloser, error)

// Option configures a Station.
type Option func(*Station)

// WithClock replaces the wall clock used for timestamps and the poll ticker.
func WithClock(c clockwork.Clock) Option {
	return func(s *Station) { s.clock = c }
}

// WithDialer replaces the serial/TCP transport.
func WithDialer(d Dialer) Option {
	return func(s *Station) { s.dial = d }
}

// Station implements a Vaisala WXT520 weather station
type Station struct {
	ctx                context.Context
	cancel             context.CancelFunc
	wg                 *sync.WaitGroup
	config             config.DeviceData
	pollEvery          time.Duration
	retryDelay         time.Duration
	ReadingDistributor chan types.Reading
	logger             *zap.SugaredLogger
	metrics            *observability.Metrics
	clock              clockwork.Clock
	dial               Dialer
	instrument         *vaisala.Instrument

	connMu    sync.Mutex
	rwc       io.ReadWriteCloser
	connected atomic.Bool
}

// NewStation creates a new WXT520 weather station for the named device
func NewStation(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, deviceName string, distributor chan types.Reading, metrics *observability.Metrics, logger *zap.SugaredLogger, opts ...Option) (*Station, error) {
	deviceConfig, err := weatherstations.LoadDeviceConfig(configProvider, deviceName)
	if err != nil {
		return nil, err
	}

	pollEvery, err := deviceConfig.PollEvery()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Station{
		ctx:                ctx,
		cancel:             cancel,
		wg:                 wg,
		config:             deviceConfig,
		pollEvery:          pollEvery,
		ReadingDistributor: distributor,
		logger:             logger.With("station", deviceName),
		metrics:            metrics,
		clock:              clockwork.NewRealClock(),
		instrument:         vaisala.NewInstrument(deviceConfig.StationID),
	}

	if s.config.SerialDevice != "" {
		s.logger.Infof("configuring WXT520 via serial port %s at %d baud", s.config.SerialDevice, s.config.Baud)
		s.dial = s.dialSerial
		s.retryDelay = serialRetryDelay
	} else {
		s.logger.Infof("configuring WXT520 via TCP/IP at %s:%s", s.config.Hostname, s.config.Port)
		s.dial = s.dialNetwork
		s.retryDelay = networkRetryDelay
	}

	for _, opt := range opts {
		opt(s)
	}

	s.metrics.StationConnected.WithLabelValues(s.config.Name).Set(0)
	return s, nil
}

func (s *Station) StationName() string {
	return s.config.Name
}

// Instrument returns the live decoder for this transmitter.
func (s *Station) Instrument() *vaisala.Instrument {
	return s.instrument
}

// Connected reports whether the transport is currently open.
func (s *Station) Connected() bool {
	return s.connected.Load()
}

// StartWeatherStation launches the sentence reader and the reading publisher
func (s *Station) StartWeatherStation() error {
	s.logger.Infof("starting Vaisala WXT520 station (address %d, publishing every %v)", s.config.StationID, s.pollEvery)

	s.wg.Add(2)
	go s.readSentences()
	go s.publishReadings()

	return nil
}

// StopWeatherStation cancels both loops and closes the transport.
func (s *Station) StopWeatherStation() error {
	s.logger.Info("stopping station")
	s.cancel()
	s.closeConn()
	return nil
}

// readSentences keeps a connection open and feeds every line to the
// decoder, reconnecting when the stream fails.
func (s *Station) readSentences() {
	defer s.wg.Done()

	for {
		rwc, err := s.connect()
		if err != nil {
			s.logger.Info("cancellation request received while connecting")
			return
		}

		err = s.processLines(rwc)
		s.closeConn()

		if s.ctx.Err() != nil {
			s.logger.Info("cancellation request received. Stopping sentence reader")
			return
		}
		s.logger.Errorf("lost transmitter stream: %v", err)
		s.logger.Info("attempting to reconnect...")
	}
}

// connect dials until it succeeds or the station is stopped.
func (s *Station) connect() (io.ReadWriteCloser, error) {
	for {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}

		rwc, err := s.dial(s.ctx)
		if err == nil {
			s.connMu.Lock()
			if s.ctx.Err() != nil {
				s.connMu.Unlock()
				rwc.Close()
				return nil, s.ctx.Err()
			}
			s.rwc = rwc
			s.connMu.Unlock()
			s.setConnected(true)
			s.logger.Info("connected to transmitter")
			return rwc, nil
		}

		s.logger.Errorf("could not connect to transmitter: %v", err)
		s.logger.Errorf("sleeping %v and trying again", s.retryDelay)

		select {
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		case <-s.clock.After(s.retryDelay):
		}
	}
}

func (s *Station) closeConn() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.rwc != nil {
		s.rwc.Close()
		s.rwc = nil
	}
	s.setConnected(false)
}

func (s *Station) setConnected(up bool) {
	s.connected.Store(up)
	v := 0.0
	if up {
		v = 1
	}
	s.metrics.StationConnected.WithLabelValues(s.config.Name).Set(v)
}

type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// processLines decodes sentences from r until the stream ends.
func (s *Station) processLines(r io.Reader) error {
	dl, hasDeadline := r.(deadliner)
	if hasDeadline {
		dl.SetReadDeadline(time.Now().Add(readTimeout))
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if hasDeadline {
			dl.SetReadDeadline(time.Now().Add(readTimeout))
		}
		if s.ctx.Err() != nil {
			return nil
		}
		s.handleLine(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading from transmitter: %w", err)
	}
	return fmt.Errorf("scanning aborted due to EOF")
}

func (s *Station) handleLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	s.metrics.LinesReceived.WithLabelValues(s.config.Name).Inc()

	accepted, err := s.instrument.Update(line, s.clock.Now())
	if err != nil {
		s.metrics.DecodeErrors.WithLabelValues(s.config.Name, vaisala.ErrorKind(err)).Inc()
		s.logger.Debugw("discarding sentence", "line", line, "error", err)
		return
	}
	if !accepted {
		s.metrics.LinesIgnored.WithLabelValues(s.config.Name).Inc()
		return
	}
	s.logger.Debugw("sentence decoded", "line", line)
}

// publishReadings sends a Reading to the distributor once per poll interval.
func (s *Station) publishReadings() {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("cancellation request received. Stopping reading publisher")
			return
		case <-ticker.Chan():
			r, ok := s.BuildReading()
			if !ok {
				s.logger.Debug("no sentences decoded yet, skipping reading")
				continue
			}

			s.logger.Debugf("sending reading to distributor: temp=%.1f°F, humidity=%.1f%%, wind=%.1f mph @ %d°, pressure=%.2f\"",
				r.OutTemp, r.OutHumidity, r.WindSpeed, int(r.WindDir), r.Barometer)

			select {
			case s.ReadingDistributor <- r:
				s.metrics.ReadingsEmitted.WithLabelValues(s.config.Name).Inc()
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// BuildReading assembles a Reading from the latest decoded records. It
// returns false when no quantity could be read at all.
func (s *Station) BuildReading() (types.Reading, bool) {
	r := types.Reading{
		Timestamp:   s.clock.Now(),
		StationName: s.config.Name,
		StationType: StationType,
	}

	ok := func(name string, err error) bool {
		if err == nil {
			return true
		}
		r.Missing = append(r.Missing, name)
		s.metrics.ReadingErrors.WithLabelValues(s.config.Name, vaisala.ErrorKind(err)).Inc()
		return false
	}

	var haveTemp, haveHumidity, haveWind bool
	got := 0

	if m, err := s.instrument.Pressure(vaisala.InchesOfMercury); ok("barometer", err) {
		r.Barometer = float32(m.Magnitude)
		got++
	}
	if m, err := s.instrument.Temperature(vaisala.Fahrenheit); ok("out_temp", err) {
		r.OutTemp = float32(m.Magnitude)
		haveTemp = true
		got++
	}
	if m, err := s.instrument.Humidity(vaisala.Percent); ok("out_humidity", err) {
		r.OutHumidity = float32(m.Magnitude)
		haveHumidity = true
		got++
	}
	if m, err := s.instrument.WindSpeed(vaisala.MilesPerHour); ok("wind_speed", err) {
		r.WindSpeed = float32(m.Magnitude)
		haveWind = true
		got++
	}
	if m, err := s.instrument.WindDirection(vaisala.Degree); ok("wind_dir", err) {
		r.WindDir = float32(weatherstations.CorrectWindDirection(m.Magnitude, s.config.WindDirCorrection))
		got++
	}
	if haveTemp && haveHumidity {
		if m, err := s.instrument.DewPoint(vaisala.Fahrenheit); ok("dew_point", err) {
			r.DewPoint = float32(m.Magnitude)
		}
		r.HeatIndex = weatherstations.CalculateHeatIndex(r.OutTemp, r.OutHumidity)
	}
	if haveTemp && haveWind {
		r.WindChill = weatherstations.CalculateWindChill(r.OutTemp, r.WindSpeed)
	}

	return r, got > 0
}

func (s *Station) dialSerial(ctx context.Context) (io.ReadWriteCloser, error) {
	sc := &serial.Config{Name: s.config.SerialDevice, Baud: s.config.Baud}
	s.logger.Debugf("attempting to open serial port %s at %d baud", s.config.SerialDevice, s.config.Baud)
	rwc, err := serial.OpenPort(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", s.config.SerialDevice, err)
	}
	return rwc, nil
}

func (s *Station) dialNetwork(ctx context.Context) (io.ReadWriteCloser, error) {
	addr := net.JoinHostPort(s.config.Hostname, s.config.Port)
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
