package types

import (
	"reflect"
	"time"
)

// Reading is a snapshot of one transmitter in the units the rest of the
// station pipeline works in: inHg, °F, mph, percent and degrees.
// Quantities the transmitter has not reported yet are left at zero and
// listed in Missing.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	StationName string    `json:"station_name"`
	StationType string    `json:"station_type"`
	Barometer   float32   `json:"barometer"`
	OutTemp     float32   `json:"out_temp"`
	OutHumidity float32   `json:"out_humidity"`
	WindSpeed   float32   `json:"wind_speed"`
	WindDir     float32   `json:"wind_dir"`
	WindChill   float32   `json:"wind_chill"`
	HeatIndex   float32   `json:"heat_index"`
	DewPoint    float32   `json:"dew_point"`
	Missing     []string  `json:"missing,omitempty"`
}

// Complete reports whether every quantity made it into the reading.
func (r *Reading) Complete() bool {
	return len(r.Missing) == 0
}

// ToMap converts the numeric members of a Reading into a map keyed by field name.
func (r *Reading) ToMap() map[string]interface{} {
	m := make(map[string]interface{})

	v := reflect.ValueOf(*r)

	for i := 0; i < v.NumField(); i++ {
		switch v.Field(i).Kind() {
		case reflect.Float32:
			m[v.Type().Field(i).Name] = v.Field(i).Float()
		}
	}

	return m
}
