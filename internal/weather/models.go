package weather

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Units selects the measurement system requested from the provider and used for display.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ErrInvalidUnits is returned for anything other than metric or imperial.
var ErrInvalidUnits = errors.New("unsupported units: use metric or imperial")

// ParseUnits accepts "metric" or "imperial" in any case.
func ParseUnits(s string) (Units, error) {
	switch Units(strings.ToLower(strings.TrimSpace(s))) {
	case UnitsMetric:
		return UnitsMetric, nil
	case UnitsImperial:
		return UnitsImperial, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnits, s)
	}
}

// TemperatureSymbol returns °C or °F.
func (u Units) TemperatureSymbol() string {
	if u == UnitsImperial {
		return "°F"
	}
	return "°C"
}

// SpeedSymbol returns m/s or mph.
func (u Units) SpeedSymbol() string {
	if u == UnitsImperial {
		return "mph"
	}
	return "m/s"
}

// Coordinates is a geographic position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location identifies what to look up: a city name, or coordinates when Coord is set.
type Location struct {
	City  string       `json:"city,omitempty"`
	Coord *Coordinates `json:"coord,omitempty"`
}

// CityLocation builds a Location for a city name.
func CityLocation(name string) Location {
	return Location{City: name}
}

// CoordLocation builds a Location for a latitude/longitude pair.
func CoordLocation(lat, lon float64) Location {
	return Location{Coord: &Coordinates{Lat: lat, Lon: lon}}
}

// Query returns the trimmed city name sent to the provider.
func (l Location) Query() string {
	return strings.TrimSpace(l.City)
}

// String is the user-facing label used in messages and logs.
func (l Location) String() string {
	if l.Coord != nil {
		return strconv.FormatFloat(l.Coord.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Coord.Lon, 'f', -1, 64)
	}
	return l.Query()
}

// Temperature is a whole-degree reading tagged with its unit system.
type Temperature struct {
	Value int   `json:"value"`
	Units Units `json:"units"`
}

func (t Temperature) String() string {
	return strconv.Itoa(t.Value) + t.Units.TemperatureSymbol()
}

// Speed is a wind speed tagged with its unit system (m/s for metric, mph for imperial).
type Speed struct {
	Value float64 `json:"value"`
	Units Units   `json:"units"`
}

// Record is the normalized weather snapshot for one location.
// All unit-bearing fields share Units, the system the caller requested.
type Record struct {
	City        string      `json:"city"`
	Country     string      `json:"country"`
	Units       Units       `json:"units"`
	Temperature Temperature `json:"temperature"`
	FeelsLike   Temperature `json:"feelsLike"`
	Humidity    int         `json:"humidityPercent"`
	WindSpeed   Speed       `json:"windSpeed"`
	WindDeg     int         `json:"windDeg"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Condition   string      `json:"condition"`
	Pressure    int         `json:"pressureHpa"`
	Visibility  int         `json:"visibilityM"`
	Sunrise     int64       `json:"sunrise"`
	Sunset      int64       `json:"sunset"`
	Timezone    int         `json:"timezoneOffset"` // seconds east of UTC
	ObservedAt  int64       `json:"observedAt"`     // unix seconds, UTC
	Coord       Coordinates `json:"coord"`
}

// FailedLocation records a city that yielded no record in a batch.
type FailedLocation struct {
	City   string `json:"city"`
	Reason string `json:"reason"`
}

// BatchResult is the outcome of an overview fetch.
// Records keep the order of the requested cities.
type BatchResult struct {
	Records []Record         `json:"records"`
	Failed  []FailedLocation `json:"failed,omitempty"`
}

// AllFailed reports whether no city produced a record.
func (b BatchResult) AllFailed() bool {
	return len(b.Records) == 0
}
