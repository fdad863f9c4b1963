package status

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/chrissnell/vaisalawx/internal/types"
	"github.com/chrissnell/vaisalawx/internal/weatherstations"
	"github.com/chrissnell/vaisalawx/pkg/config"
	"github.com/chrissnell/vaisalawx/pkg/vaisala"
)

type fakeStation struct {
	name string
	inst *vaisala.Instrument
	up   bool
}

func (f *fakeStation) StartWeatherStation() error      { return nil }
func (f *fakeStation) StopWeatherStation() error       { return nil }
func (f *fakeStation) StationName() string             { return f.name }
func (f *fakeStation) Instrument() *vaisala.Instrument { return f.inst }
func (f *fakeStation) Connected() bool                 { return f.up }

type fakeLookup map[string]weatherstations.WeatherStation

func (l fakeLookup) GetStation(name string) weatherstations.WeatherStation { return l[name] }

func (l fakeLookup) StationNames() []string {
	var names []string
	for name := range l {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var observed = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, readings chan types.Reading) *Controller {
	t.Helper()

	roof := &fakeStation{name: "roof", inst: vaisala.NewInstrument(0), up: true}
	_, err := roof.inst.Update("0R1,Dn=236D,Dm=283D,Dx=031D,Sn=0.0M,Sm=1.0M,Sx=2.2M\r\n", observed)
	require.NoError(t, err)
	_, err = roof.inst.Update("0R2,Ta=23.6C,Ua=14.2P,Pa=1026.6H\r\n", observed)
	require.NoError(t, err)

	mast := &fakeStation{name: "mast", inst: vaisala.NewInstrument(3)}
	_, err = mast.inst.Update("3R2,Ta=-4.0C,Ua=88.0P,Pa=998.1H\r\n", observed)
	require.NoError(t, err)

	c, err := NewController(context.Background(), &sync.WaitGroup{},
		config.StatusServerData{ListenAddr: "127.0.0.1", Port: 9100, PullFromDevice: "roof"},
		fakeLookup{"roof": roof, "mast": mast}, readings, zap.NewNop().Sugar())
	require.NoError(t, err)
	return c
}

func get(t *testing.T, c *Controller, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	c.Server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestNewController_Defaults(t *testing.T) {
	c, err := NewController(context.Background(), &sync.WaitGroup{}, config.StatusServerData{}, fakeLookup{}, nil, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", c.Server.Addr)

	_, err = NewController(context.Background(), &sync.WaitGroup{}, config.StatusServerData{Port: 70000}, fakeLookup{}, nil, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestGetHealth(t *testing.T) {
	c := newTestController(t, nil)

	rr := get(t, c, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, []stationHealth{{Name: "mast", Connected: false}, {Name: "roof", Connected: true}}, resp.Stations)
}

func TestGetCondition(t *testing.T) {
	c := newTestController(t, nil)

	tests := []struct {
		name     string
		target   string
		status   int
		value    float64
		unit     string
		wantKind string
	}{
		{"default station and unit", "/conditions/temperature", http.StatusOK, 23.6, "C", ""},
		{"fahrenheit", "/conditions/temperature?unit=F", http.StatusOK, 74.48, "F", ""},
		{"explicit station query", "/conditions/pressure?station=mast&unit=hPa", http.StatusOK, 998.1, "hPa", ""},
		{"station path", "/stations/mast/conditions/humidity", http.StatusOK, 88.0, "%", ""},
		{"wind in knots", "/conditions/wind_speed?unit=kn", http.StatusOK, 3600.0 / 1852, "kn", ""},
		{"wind direction", "/conditions/wind_direction", http.StatusOK, 283, "deg", ""},
		{"no wind block yet", "/stations/mast/conditions/wind_speed", http.StatusServiceUnavailable, 0, "", "record_not_available"},
		{"unsupported unit", "/conditions/pressure?unit=furlong", http.StatusBadRequest, 0, "", "unsupported_output_unit"},
		{"unknown quantity", "/conditions/visibility", http.StatusNotFound, 0, "", ""},
		{"rain rate", "/conditions/rain_rate", http.StatusNotImplemented, 0, "", "not_implemented"},
		{"rain rate in mm/h", "/conditions/rain_rate?unit=mm/h", http.StatusNotImplemented, 0, "", "not_implemented"},
		{"rain rate bad unit", "/conditions/rain_rate?unit=furlong", http.StatusBadRequest, 0, "", "unsupported_output_unit"},
		{"unknown station", "/stations/cellar/conditions/temperature", http.StatusNotFound, 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, c, tt.target)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			if tt.status != http.StatusOK {
				var resp errorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Error)
				if tt.wantKind != "" {
					assert.Equal(t, tt.wantKind, resp.Kind)
				}
				return
			}

			var resp conditionResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.InDelta(t, tt.value, resp.Value, 1e-6)
			assert.Equal(t, tt.unit, resp.Unit)
			assert.True(t, observed.Equal(resp.Timestamp))
		})
	}
}

func TestGetCondition_DewPoint(t *testing.T) {
	c := newTestController(t, nil)

	rr := get(t, c, "/conditions/dew_point")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp conditionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	want, err := vaisala.DewPointCelsius(23.6, 14.2)
	require.NoError(t, err)
	assert.InDelta(t, want, resp.Value, 1e-9)
	assert.Equal(t, "roof", resp.Station)
	assert.Equal(t, "dew_point", resp.Quantity)
}

func TestGetCondition_MsgPack(t *testing.T) {
	c := newTestController(t, nil)

	rr := get(t, c, "/conditions/temperature?unit=F&format=msgpack")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/x-msgpack", rr.Header().Get("Content-Type"))

	var resp conditionResponse
	dec := msgpack.NewDecoder(bytes.NewReader(rr.Body.Bytes()))
	dec.SetCustomStructTag("json")
	require.NoError(t, dec.Decode(&resp))
	assert.InDelta(t, 74.48, resp.Value, 1e-6)
	assert.Equal(t, "F", resp.Unit)
	assert.Equal(t, "temperature", resp.Quantity)
}

func TestGetRecords(t *testing.T) {
	c := newTestController(t, nil)

	rr := get(t, c, "/records")
	require.Equal(t, http.StatusOK, rr.Code)

	var records []recordResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].MessageID)
	assert.Equal(t, "2", records[1].MessageID)
	assert.Equal(t, "1026.6H", records[1].Fields["Pa"])
	assert.True(t, observed.Equal(records[1].ObservedAt))

	rr = get(t, c, "/stations/mast/records")
	require.Equal(t, http.StatusOK, rr.Code)
	records = nil
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "2", records[0].MessageID)

	assert.Equal(t, http.StatusNotFound, get(t, c, "/stations/cellar/records").Code)
}

func TestGetLatest(t *testing.T) {
	readings := make(chan types.Reading, 1)
	c := newTestController(t, readings)

	ctx, cancel := context.WithCancel(context.Background())
	c.ctx = ctx
	done := make(chan struct{})
	go func() {
		c.collectReadings()
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	assert.Equal(t, http.StatusNotFound, get(t, c, "/latest").Code)

	readings <- types.Reading{Timestamp: observed, StationName: "roof", StationType: "vaisala-wxt520", OutTemp: 74.48}

	require.Eventually(t, func() bool {
		return get(t, c, "/latest").Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	var r types.Reading
	require.NoError(t, json.Unmarshal(get(t, c, "/latest?station=roof").Body.Bytes(), &r))
	assert.Equal(t, "roof", r.StationName)
	assert.InDelta(t, 74.48, r.OutTemp, 1e-4)

	assert.Equal(t, http.StatusNotFound, get(t, c, "/latest?station=mast").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	c := newTestController(t, nil)

	rr := get(t, c, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
