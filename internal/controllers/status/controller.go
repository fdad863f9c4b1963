// Package status serves station health, the latest readings, on-demand
// conditions in any supported unit, and Prometheus metrics over HTTP.
package status

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chrissnell/vaisalawx/internal/log"
	"github.com/chrissnell/vaisalawx/internal/types"
	"github.com/chrissnell/vaisalawx/internal/weatherstations"
	"github.com/chrissnell/vaisalawx/pkg/config"
	"github.com/chrissnell/vaisalawx/pkg/responseformat"
)

// StationLookup finds running stations by name.
type StationLookup interface {
	GetStation(deviceName string) weatherstations.WeatherStation
	StationNames() []string
}

// Controller represents the status server controller
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	config   config.StatusServerData
	Server   http.Server
	stations StationLookup
	readings <-chan types.Reading
	logger   *zap.SugaredLogger

	formatter *responseformat.Formatter

	latestMu sync.RWMutex
	latest   map[string]types.Reading
}

// NewController creates a new status server controller. readings is the
// controller's subscription to the reading distributor.
func NewController(ctx context.Context, wg *sync.WaitGroup, sc config.StatusServerData, stations StationLookup, readings <-chan types.Reading, logger *zap.SugaredLogger) (*Controller, error) {
	if sc.ListenAddr == "" {
		logger.Info("status.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		sc.ListenAddr = "0.0.0.0"
	}
	if sc.Port == 0 {
		logger.Infof("status.port not provided; defaulting to %d", config.DefaultStatusPort)
		sc.Port = config.DefaultStatusPort
	}
	if sc.Port < 0 || sc.Port > 65535 {
		return nil, fmt.Errorf("invalid status server port %d", sc.Port)
	}

	c := &Controller{
		ctx:      ctx,
		wg:       wg,
		config:   sc,
		stations: stations,
		readings: readings,
		logger:   logger,
		latest:   make(map[string]types.Reading),

		formatter: responseformat.NewFormatter(),
	}

	c.Server = http.Server{
		Addr:         fmt.Sprintf("%v:%v", sc.ListenAddr, sc.Port),
		Handler:      c.setupRouter(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return c, nil
}

// StartController starts the status server and the reading collector
func (c *Controller) StartController() error {
	c.logger.Infof("Starting status server on %s...", c.Server.Addr)
	c.wg.Add(2)

	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			c.logger.Errorf("status server error: %v", err)
		}
	}()

	go func() {
		defer c.wg.Done()
		c.collectReadings()
		c.logger.Info("Shutting down the status server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// collectReadings keeps the most recent reading per station until the
// context is cancelled.
func (c *Controller) collectReadings() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case r, ok := <-c.readings:
			if !ok {
				<-c.ctx.Done()
				return
			}
			c.latestMu.Lock()
			c.latest[r.StationName] = r
			c.latestMu.Unlock()
		}
	}
}

func (c *Controller) latestReading(station string) (types.Reading, bool) {
	c.latestMu.RLock()
	defer c.latestMu.RUnlock()
	r, ok := c.latest[station]
	return r, ok
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger)

	router.HandleFunc("/healthz", c.GetHealth).Methods(http.MethodGet)
	router.HandleFunc("/latest", c.GetLatest).Methods(http.MethodGet)
	router.HandleFunc("/conditions/{quantity}", c.GetCondition).Methods(http.MethodGet)
	router.HandleFunc("/stations/{station}/conditions/{quantity}", c.GetCondition).Methods(http.MethodGet)
	router.HandleFunc("/records", c.GetRecords).Methods(http.MethodGet)
	router.HandleFunc("/stations/{station}/records", c.GetRecords).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		log.LogHTTPRequest(req.Method, req.URL.Path, rec.status, time.Since(start), rec.size, req.RemoteAddr)
	})
}
