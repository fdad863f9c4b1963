package status

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"

	"github.com/chrissnell/vaisalawx/internal/weatherstations"
	"github.com/chrissnell/vaisalawx/pkg/vaisala"
)

var (
	errUnknownQuantity = errors.New("unknown quantity")
	errUnknownStation  = errors.New("unknown station")
	errNoStation       = errors.New("no station selected; pass ?station= or set pull_from_device")
)

type stationHealth struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type healthResponse struct {
	Status   string          `json:"status"`
	Stations []stationHealth `json:"stations"`
}

type conditionResponse struct {
	Station   string    `json:"station"`
	Quantity  string    `json:"quantity"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

type recordResponse struct {
	MessageID  string            `json:"message_id"`
	ObservedAt time.Time         `json:"observed_at"`
	Fields     map[string]string `json:"fields"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// GetHealth reports whether every station's transport is up.
func (c *Controller) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := healthResponse{Status: "healthy", Stations: []stationHealth{}}

	for _, name := range c.stations.StationNames() {
		h := stationHealth{Name: name}
		if cs, ok := c.stations.GetStation(name).(interface{ Connected() bool }); ok {
			h.Connected = cs.Connected()
		}
		if !h.Connected {
			resp.Status = "degraded"
		}
		resp.Stations = append(resp.Stations, h)
	}

	c.writeResponse(w, req, http.StatusOK, resp)
}

// GetLatest returns the last reading published by a station.
func (c *Controller) GetLatest(w http.ResponseWriter, req *http.Request) {
	name, err := c.stationFor(req)
	if err != nil {
		c.writeError(w, req, http.StatusNotFound, err)
		return
	}

	r, ok := c.latestReading(name)
	if !ok {
		c.writeError(w, req, http.StatusNotFound, fmt.Errorf("no reading from station %s yet", name))
		return
	}
	c.writeResponse(w, req, http.StatusOK, r)
}

// GetCondition reads one quantity straight from a station's decoder,
// converted to the unit named by ?unit= or the quantity's default unit.
func (c *Controller) GetCondition(w http.ResponseWriter, req *http.Request) {
	name, err := c.stationFor(req)
	if err != nil {
		c.writeError(w, req, http.StatusNotFound, err)
		return
	}

	ip, ok := c.stations.GetStation(name).(weatherstations.InstrumentProvider)
	if !ok {
		c.writeError(w, req, http.StatusNotImplemented, fmt.Errorf("station %s does not expose live conditions", name))
		return
	}

	quantity := mux.Vars(req)["quantity"]
	cond, err := readCondition(ip.Instrument(), quantity, req.URL.Query().Get("unit"))
	if err != nil {
		c.writeError(w, req, statusForError(err), err)
		return
	}
	cond.Station = name
	cond.Quantity = quantity

	c.writeResponse(w, req, http.StatusOK, cond)
}

// GetRecords lists the raw blocks a station's decoder currently holds,
// ordered by message id.
func (c *Controller) GetRecords(w http.ResponseWriter, req *http.Request) {
	name, err := c.stationFor(req)
	if err != nil {
		c.writeError(w, req, http.StatusNotFound, err)
		return
	}

	ip, ok := c.stations.GetStation(name).(weatherstations.InstrumentProvider)
	if !ok {
		c.writeError(w, req, http.StatusNotImplemented, fmt.Errorf("station %s does not expose live conditions", name))
		return
	}

	store := ip.Instrument().Store()
	ids := store.MessageIDs()
	slices.Sort(ids)

	records := make([]recordResponse, 0, len(ids))
	for _, id := range ids {
		r, err := store.Get(id)
		if err != nil {
			continue
		}
		records = append(records, recordResponse{MessageID: r.MessageID, ObservedAt: r.ObservedAt, Fields: r.Fields})
	}

	c.writeResponse(w, req, http.StatusOK, records)
}

// stationFor picks the station a request is about: the path variable, then
// ?station=, then the configured default, then the only running station.
func (c *Controller) stationFor(req *http.Request) (string, error) {
	name := mux.Vars(req)["station"]
	if name == "" {
		name = req.URL.Query().Get("station")
	}
	if name == "" {
		name = c.config.PullFromDevice
	}
	if name == "" {
		names := c.stations.StationNames()
		if len(names) != 1 {
			return "", errNoStation
		}
		name = names[0]
	}

	if c.stations.GetStation(name) == nil {
		return "", fmt.Errorf("%w: %s", errUnknownStation, name)
	}
	return name, nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errUnknownQuantity):
		return http.StatusNotFound
	case errors.Is(err, vaisala.ErrUnsupportedOutputUnit), errors.Is(err, vaisala.ErrUnsupportedConversion):
		return http.StatusBadRequest
	case errors.Is(err, vaisala.ErrRecordNotAvailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, vaisala.ErrMalformedValue), errors.Is(err, vaisala.ErrUnknownUnitSuffix):
		return http.StatusBadGateway
	case errors.Is(err, vaisala.ErrDomain):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vaisala.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (c *Controller) writeResponse(w http.ResponseWriter, req *http.Request, status int, v any) {
	if err := c.formatter.WriteResponse(w, req, status, v); err != nil {
		c.logger.Debugf("error writing response to %s: %v", req.RemoteAddr, err)
	}
}

func (c *Controller) writeError(w http.ResponseWriter, req *http.Request, status int, err error) {
	c.writeResponse(w, req, status, errorResponse{Error: err.Error(), Kind: vaisala.ErrorKind(err)})
}
