package managers

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/chrissnell/vaisalawx/internal/interfaces"
	"github.com/chrissnell/vaisalawx/internal/log"
	"github.com/chrissnell/vaisalawx/internal/observability"
	"github.com/chrissnell/vaisalawx/internal/types"
	"github.com/chrissnell/vaisalawx/internal/weatherstations"
	"github.com/chrissnell/vaisalawx/internal/weatherstations/wxt520"
	"github.com/chrissnell/vaisalawx/pkg/config"
)

// StationFactory builds a station for a configured device. Tests substitute
// their own to avoid opening real transports.
type StationFactory func(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, device config.DeviceData, distributor chan types.Reading, metrics *observability.Metrics, logger *zap.SugaredLogger) (weatherstations.WeatherStation, error)

// NewWeatherStationManager creates a WeatherStationManager object, populated with all configured weather stations
func NewWeatherStationManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, distributor chan types.Reading, metrics *observability.Metrics, logger *zap.SugaredLogger) (interfaces.WeatherStationManager, error) {
	return newWeatherStationManager(ctx, wg, configProvider, distributor, metrics, logger, createStationFromConfig)
}

func newWeatherStationManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, distributor chan types.Reading, metrics *observability.Metrics, logger *zap.SugaredLogger, factory StationFactory) (*weatherStationManager, error) {
	devices, err := configProvider.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	wsm := &weatherStationManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		distributor:    distributor,
		metrics:        metrics,
		logger:         logger,
		factory:        factory,
		stations:       make(map[string]weatherstations.WeatherStation),
	}

	// Create weather stations directly from config data (only for enabled devices)
	for _, deviceConfig := range devices {
		if !deviceConfig.Enabled {
			logger.Infof("Skipping disabled device [%s]", deviceConfig.Name)
			continue
		}
		station, err := factory(ctx, wg, configProvider, deviceConfig, distributor, metrics, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating weather station [%s]: %w", deviceConfig.Name, err)
		}
		wsm.stations[deviceConfig.Name] = station
	}

	return wsm, nil
}

type weatherStationManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	distributor    chan types.Reading
	metrics        *observability.Metrics
	logger         *zap.SugaredLogger
	factory        StationFactory
	stations       map[string]weatherstations.WeatherStation
	mu             sync.RWMutex
}

func (w *weatherStationManager) StartWeatherStations() error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	w.logger.Infof("Starting %d weather station(s)", len(w.stations))
	for name, station := range w.stations {
		w.logger.Infof("Starting weather station [%v]...", name)
		if err := station.StartWeatherStation(); err != nil {
			return fmt.Errorf("failed to start weather station [%s]: %w", name, err)
		}
	}
	return nil
}

// StopWeatherStations stops every running station.
func (w *weatherStationManager) StopWeatherStations() {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for name, station := range w.stations {
		if err := station.StopWeatherStation(); err != nil {
			w.logger.Errorf("Error stopping weather station %s: %v", name, err)
		}
	}
}

// AddWeatherStation adds a new weather station dynamically
func (w *weatherStationManager) AddWeatherStation(deviceName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.stations[deviceName]; exists {
		return fmt.Errorf("weather station %s already exists", deviceName)
	}

	device, err := w.configProvider.GetDevice(deviceName)
	if err != nil {
		return fmt.Errorf("failed to get device %s: %w", deviceName, err)
	}
	if !device.Enabled {
		return fmt.Errorf("cannot add disabled device %s", deviceName)
	}

	station, err := w.factory(w.ctx, w.wg, w.configProvider, *device, w.distributor, w.metrics, w.logger)
	if err != nil {
		return fmt.Errorf("error creating weather station [%s]: %w", deviceName, err)
	}

	w.stations[deviceName] = station

	if err := station.StartWeatherStation(); err != nil {
		delete(w.stations, deviceName)
		return fmt.Errorf("failed to start weather station [%s]: %w", deviceName, err)
	}

	w.logger.Infof("Added and started weather station: %s", deviceName)
	return nil
}

// RemoveWeatherStation removes a weather station dynamically
func (w *weatherStationManager) RemoveWeatherStation(deviceName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	station, exists := w.stations[deviceName]
	if !exists {
		return fmt.Errorf("weather station %s not found", deviceName)
	}

	if err := station.StopWeatherStation(); err != nil {
		w.logger.Errorf("Error stopping weather station %s: %v", deviceName, err)
		// Continue with removal even if stop failed
	}

	delete(w.stations, deviceName)

	w.logger.Infof("Removed and stopped weather station: %s", deviceName)
	return nil
}

// ReloadWeatherStationsConfig reloads weather station configuration dynamically
func (w *weatherStationManager) ReloadWeatherStationsConfig() error {
	devices, err := w.configProvider.GetDevices()
	if err != nil {
		return fmt.Errorf("could not load configuration: %v", err)
	}

	// Track what stations should be active (only enabled devices)
	shouldBeActive := make(map[string]bool)
	for _, deviceConfig := range devices {
		if deviceConfig.Enabled {
			shouldBeActive[deviceConfig.Name] = true
		}
	}

	running := w.StationNames()

	for _, name := range running {
		if !shouldBeActive[name] {
			if err := w.RemoveWeatherStation(name); err != nil {
				w.logger.Errorf("Failed to remove weather station %s: %v", name, err)
			}
		}
	}

	for name := range shouldBeActive {
		if !slices.Contains(running, name) {
			if err := w.AddWeatherStation(name); err != nil {
				w.logger.Errorf("Failed to add weather station %s: %v", name, err)
			}
		}
	}

	return nil
}

// GetStation retrieves a weather station by name.
// Returns nil if the station does not exist.
// This method is safe for concurrent use.
func (w *weatherStationManager) GetStation(deviceName string) weatherstations.WeatherStation {
	w.mu.RLock()
	defer w.mu.RUnlock()

	station, exists := w.stations[deviceName]
	if !exists {
		return nil
	}
	return station
}

// StationNames returns the names of the running stations, sorted.
func (w *weatherStationManager) StationNames() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.stations))
	for name := range w.stations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// createStationFromConfig creates the appropriate weather station based on device type
func createStationFromConfig(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, device config.DeviceData, distributor chan types.Reading, metrics *observability.Metrics, logger *zap.SugaredLogger) (weatherstations.WeatherStation, error) {
	switch device.Type {
	case config.DeviceTypeWXT520:
		log.Infof("Initializing Vaisala WXT520 weather station [%v]", device.Name)
		station, err := wxt520.NewStation(ctx, wg, configProvider, device.Name, distributor, metrics, logger.Named("wxt520"))
		if err != nil {
			return nil, err
		}
		return station, nil
	default:
		return nil, fmt.Errorf("unknown weather station type: %s", device.Type)
	}
}
