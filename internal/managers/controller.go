package managers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chrissnell/vaisalawx/internal/controllers/status"
	"github.com/chrissnell/vaisalawx/pkg/config"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a new controller manager
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, stations status.StationLookup, distributor *ReadingDistributor, logger *zap.SugaredLogger) (ControllerManager, error) {
	controllerConfigs, err := configProvider.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("error loading controller configuration: %v", err)
	}

	cm := &controllerManager{
		ctx:         ctx,
		wg:          wg,
		stations:    stations,
		distributor: distributor,
		logger:      logger,
		controllers: make([]Controller, 0),
	}

	for _, con := range controllerConfigs {
		controller, err := cm.createController(con)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	return cm, nil
}

type controllerManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	stations    status.StationLookup
	distributor *ReadingDistributor
	logger      *zap.SugaredLogger
	controllers []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

// createController creates a controller based on the controller configuration
func (c *controllerManager) createController(cc config.ControllerData) (Controller, error) {
	switch cc.Type {
	case config.ControllerTypeStatus:
		sc := config.StatusServerData{}
		if cc.Status != nil {
			sc = *cc.Status
		}
		controller, err := status.NewController(c.ctx, c.wg, sc, c.stations, c.distributor.Subscribe(20), c.logger.Named("status"))
		if err != nil {
			return nil, err
		}
		return controller, nil
	default:
		return nil, fmt.Errorf("unknown controller type: %s", cc.Type)
	}
}
