package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// pingCity is looked up by Ping to check connectivity and credentials.
const pingCity = "London"

// OpenWeatherProvider implements weather.Fetcher for OpenWeatherMap's current-weather endpoint.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	log     logrus.FieldLogger
}

// Option configures an OpenWeatherProvider.
type Option func(*openWeatherOptions)

type openWeatherOptions struct {
	baseURL  string
	breaker  gobreaker.Settings
	halfOpen int
	log      logrus.FieldLogger
}

// WithBaseURL points the provider at a different API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(o *openWeatherOptions) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

// WithBreakerSettings replaces the circuit breaker settings.
func WithBreakerSettings(s gobreaker.Settings) Option {
	return func(o *openWeatherOptions) {
		o.breaker = s
	}
}

// WithHalfOpenRequests lets at least n requests through while the circuit is
// half-open, so a whole overview batch can probe a recovered provider.
func WithHalfOpenRequests(n int) Option {
	return func(o *openWeatherOptions) {
		o.halfOpen = n
	}
}

// WithLogger sets the provider logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *openWeatherOptions) {
		o.log = log
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	o := openWeatherOptions{
		baseURL: DefaultOpenWeatherBaseURL,
		breaker: defaultBreakerSettings("openweather"),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.halfOpen > 0 && uint32(o.halfOpen) > o.breaker.MaxRequests {
		o.breaker.MaxRequests = uint32(o.halfOpen)
	}
	if o.breaker.IsSuccessful == nil {
		o.breaker.IsSuccessful = isBreakerSuccess
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: o.baseURL,
		client:  client,
		circuit: gobreaker.NewCircuitBreaker(o.breaker),
		log:     o.log.WithField("component", "openweather_provider"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// openWeatherResponse is the subset of /weather we normalize.
type openWeatherResponse struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

// FetchWeather issues one GET <base>/weather request and normalizes the body.
func (p *OpenWeatherProvider) FetchWeather(ctx context.Context, loc weather.Location, units weather.Units) (weather.Record, error) {
	if p.apiKey == "" {
		return weather.Record{}, &weather.ProviderError{Message: "openweather api key is not configured"}
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", string(units))
	if loc.Coord != nil {
		values.Set("lat", strconv.FormatFloat(loc.Coord.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(loc.Coord.Lon, 'f', -1, 64))
	} else {
		q := loc.Query()
		if q == "" {
			return weather.Record{}, weather.ErrEmptyLocation
		}
		values.Set("q", q)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/weather?"+values.Encode(), nil)
	if err != nil {
		return weather.Record{}, &weather.ProviderError{Err: err}
	}

	p.log.Debugf("fetching weather for %s (%s)", loc, units)

	resp, err := doRequest(p.client, p.circuit, req)
	if err != nil {
		return weather.Record{}, classifyRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return weather.Record{}, &weather.NotFoundError{Location: loc}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return weather.Record{}, &weather.ProviderError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(body),
			Err:        &statusError{StatusCode: resp.StatusCode, Body: body},
		}
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Record{}, &weather.ProviderError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %v", errMalformedBody, err),
		}
	}
	if len(payload.Weather) == 0 {
		return weather.Record{}, &weather.ProviderError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: no weather conditions", errMalformedBody),
		}
	}

	return toRecord(&payload, units), nil
}

// Ping checks that the provider answers for a well-known city.
func (p *OpenWeatherProvider) Ping(ctx context.Context) error {
	_, err := p.FetchWeather(ctx, weather.CityLocation(pingCity), weather.UnitsMetric)
	return err
}

func toRecord(payload *openWeatherResponse, units weather.Units) weather.Record {
	cond := payload.Weather[0]

	return weather.Record{
		City:        payload.Name,
		Country:     payload.Sys.Country,
		Units:       units,
		Temperature: weather.Temperature{Value: roundTemp(payload.Main.Temp), Units: units},
		FeelsLike:   weather.Temperature{Value: roundTemp(payload.Main.FeelsLike), Units: units},
		Humidity:    payload.Main.Humidity,
		WindSpeed:   weather.Speed{Value: payload.Wind.Speed, Units: units},
		WindDeg:     payload.Wind.Deg,
		Description: cond.Description,
		Icon:        cond.Icon,
		Condition:   cond.Main,
		Pressure:    payload.Main.Pressure,
		Visibility:  payload.Visibility,
		Sunrise:     payload.Sys.Sunrise,
		Sunset:      payload.Sys.Sunset,
		Timezone:    payload.Timezone,
		ObservedAt:  payload.Dt,
		Coord: weather.Coordinates{
			Lat: payload.Coord.Lat,
			Lon: payload.Coord.Lon,
		},
	}
}

// roundTemp rounds half away from zero.
func roundTemp(v float64) int {
	return int(math.Round(v))
}

// providerMessage extracts OpenWeatherMap's {"cod": ..., "message": "..."} error text.
func providerMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &e) != nil {
		return ""
	}
	return strings.TrimSpace(e.Message)
}
