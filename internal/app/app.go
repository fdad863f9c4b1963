package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/vaisalawx/internal/interfaces"
	"github.com/chrissnell/vaisalawx/internal/log"
	"github.com/chrissnell/vaisalawx/internal/managers"
	"github.com/chrissnell/vaisalawx/internal/observability"
	"github.com/chrissnell/vaisalawx/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	metrics        *observability.Metrics
	wsm            interfaces.WeatherStationManager
}

var _ interfaces.AppReloader = (*App)(nil)

// New creates a new application instance
func New(configProvider config.ConfigProvider, metrics *observability.Metrics, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		metrics:        metrics,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown. SIGHUP reloads the
// device list; SIGINT and SIGTERM shut down.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	distributor := managers.NewReadingDistributor(ctx, &wg, a.logger.Named("distributor"))

	wsm, err := managers.NewWeatherStationManager(ctx, &wg, a.configProvider, distributor.C, a.metrics, a.logger)
	if err != nil {
		return err
	}
	a.wsm = wsm

	// Controllers subscribe to the distributor before any station publishes.
	cm, err := managers.NewControllerManager(ctx, &wg, a.configProvider, wsm, distributor, a.logger)
	if err != nil {
		return err
	}
	if err := cm.StartControllers(); err != nil {
		return err
	}

	if err := wsm.StartWeatherStations(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

wait:
	for {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				log.Info("SIGHUP received, reloading configuration...")
				if err := a.ReloadConfiguration(ctx); err != nil {
					log.Errorf("configuration reload failed: %v", err)
				}
				continue
			}
			log.Info("shutdown signal received, initiating graceful shutdown...")
			break wait
		case <-ctx.Done():
			log.Info("context cancelled, shutting down...")
			break wait
		}
	}

	wsm.StopWeatherStations()
	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// ReloadConfiguration re-reads the device list and starts or stops stations to match.
func (a *App) ReloadConfiguration(ctx context.Context) error {
	if a.wsm == nil {
		return fmt.Errorf("application is not running")
	}
	return a.wsm.ReloadWeatherStationsConfig()
}

// AddWeatherStation starts a station for a device added to the configuration.
func (a *App) AddWeatherStation(deviceName string) error {
	if a.wsm == nil {
		return fmt.Errorf("application is not running")
	}
	return a.wsm.AddWeatherStation(deviceName)
}

// RemoveWeatherStation stops a running station.
func (a *App) RemoveWeatherStation(deviceName string) error {
	if a.wsm == nil {
		return fmt.Errorf("application is not running")
	}
	return a.wsm.RemoveWeatherStation(deviceName)
}
