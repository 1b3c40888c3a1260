package weather

import (
	"fmt"
	"math"
	"time"
	"unicode"
	"unicode/utf8"
)

// mphPerMetrePerSecond converts m/s to mph.
const mphPerMetrePerSecond = 2.237

const iconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// FormatWindSpeed renders s in the display unit system with one decimal,
// converting between m/s and mph when the systems differ.
func FormatWindSpeed(s Speed, display Units) string {
	v := s.Value
	switch {
	case s.Units == UnitsMetric && display == UnitsImperial:
		v *= mphPerMetrePerSecond
	case s.Units == UnitsImperial && display == UnitsMetric:
		v /= mphPerMetrePerSecond
	}
	return fmt.Sprintf("%.1f %s", v, display.SpeedSymbol())
}

// ConvertTemperature returns t expressed in the target unit system, rounded to whole degrees.
func ConvertTemperature(t Temperature, to Units) Temperature {
	if t.Units == to {
		return t
	}
	v := float64(t.Value)
	switch to {
	case UnitsImperial:
		v = v*9/5 + 32
	case UnitsMetric:
		v = (v - 32) * 5 / 9
	}
	return Temperature{Value: int(math.Round(v)), Units: to}
}

// WindDirection maps degrees to a 16-point compass label.
func WindDirection(deg int) string {
	idx := int(math.Round(float64(deg)/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}

// FormatVisibility renders metres as kilometres, capping at "10+ km".
func FormatVisibility(metres int) string {
	if metres >= 10000 {
		return "10+ km"
	}
	return fmt.Sprintf("%.1f km", float64(metres)/1000)
}

// localTime shifts a UTC unix timestamp by the location's offset.
func localTime(ts int64, tzOffset int) time.Time {
	return time.Unix(ts+int64(tzOffset), 0).UTC()
}

// FormatLocalTime renders ts as HH:MM wall-clock time at the location.
func FormatLocalTime(ts int64, tzOffset int) string {
	return localTime(ts, tzOffset).Format("15:04")
}

// FormatLocalDate renders ts as a long date at the location, e.g. "Monday, January 2, 2006".
func FormatLocalDate(ts int64, tzOffset int) string {
	return localTime(ts, tzOffset).Format("Monday, January 2, 2006")
}

// TemperatureBand buckets a temperature by its Celsius value.
func TemperatureBand(t Temperature) string {
	c := float64(t.Value)
	if t.Units == UnitsImperial {
		c = (c - 32) * 5 / 9
	}
	switch {
	case c >= 30:
		return "hot"
	case c >= 25:
		return "warm"
	case c >= 20:
		return "mild"
	case c >= 15:
		return "pleasant"
	case c >= 10:
		return "cool"
	case c >= 0:
		return "cold"
	default:
		return "freezing"
	}
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// IconURL returns the provider's 2x icon image for an icon id.
func IconURL(icon string) string {
	if icon == "" {
		return ""
	}
	return fmt.Sprintf(iconURLFormat, icon)
}

// Card is the display model rendered by the dashboard.
type Card struct {
	Record          Record `json:"record"`
	DisplayUnits    Units  `json:"displayUnits"`
	Temperature     string `json:"temperature"`
	FeelsLike       string `json:"feelsLike"`
	TemperatureBand string `json:"temperatureBand"`
	Description     string `json:"description"`
	IconURL         string `json:"iconUrl"`
	Wind            string `json:"wind"`
	WindDirection   string `json:"windDirection"`
	Visibility      string `json:"visibility"`
	LocalDate       string `json:"localDate"`
	LocalTime       string `json:"localTime"`
	Sunrise         string `json:"sunrise"`
	Sunset          string `json:"sunset"`
	Coordinates     string `json:"coordinates"`
}

// NewCard formats r for display in the given unit system.
func NewCard(r Record, display Units) Card {
	temp := ConvertTemperature(r.Temperature, display)
	feels := ConvertTemperature(r.FeelsLike, display)

	return Card{
		Record:          r,
		DisplayUnits:    display,
		Temperature:     temp.String(),
		FeelsLike:       feels.String(),
		TemperatureBand: TemperatureBand(temp),
		Description:     Capitalize(r.Description),
		IconURL:         IconURL(r.Icon),
		Wind:            FormatWindSpeed(r.WindSpeed, display),
		WindDirection:   WindDirection(r.WindDeg),
		Visibility:      FormatVisibility(r.Visibility),
		LocalDate:       FormatLocalDate(r.ObservedAt, r.Timezone),
		LocalTime:       FormatLocalTime(r.ObservedAt, r.Timezone),
		Sunrise:         FormatLocalTime(r.Sunrise, r.Timezone),
		Sunset:          FormatLocalTime(r.Sunset, r.Timezone),
		Coordinates:     fmt.Sprintf("%.2f°, %.2f°", r.Coord.Lat, r.Coord.Lon),
	}
}

// NewCards formats every record of a batch.
func NewCards(records []Record, display Units) []Card {
	cards := make([]Card, 0, len(records))
	for _, r := range records {
		cards = append(cards, NewCard(r, display))
	}
	return cards
}
