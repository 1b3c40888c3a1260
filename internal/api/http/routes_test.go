package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type stubFetcher map[string]error

func (s stubFetcher) FetchWeather(_ context.Context, loc weather.Location, units weather.Units) (weather.Record, error) {
	if err, ok := s[loc.String()]; ok {
		return weather.Record{}, err
	}
	return weather.Record{
		City:        loc.String(),
		Country:     "XX",
		Units:       units,
		Temperature: weather.Temperature{Value: 20, Units: units},
		WindSpeed:   weather.Speed{Value: 3.0, Units: units},
	}, nil
}

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Name() string { return "openweather" }

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type testEnv struct {
	app    *fiber.App
	pinger *mockPinger
	recent *prefs.RecentSearches
	board  *store.OverviewBoard
}

func newTestEnv(t *testing.T, fail stubFetcher, cities []string) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	kv := store.NewMemoryKV()
	env := &testEnv{
		app:    fiber.New(fiber.Config{ErrorHandler: ErrorHandler}),
		pinger: &mockPinger{},
		recent: prefs.NewRecentSearches(kv, 0, log),
		board:  store.NewOverviewBoard(time.Hour),
	}

	RegisterRoutes(env.app, Deps{
		Service:        weather.NewService(fail, weather.WithLogger(log)),
		Provider:       env.pinger,
		Recent:         env.recent,
		Units:          prefs.NewUnitPreference(kv, weather.UnitsMetric),
		Board:          env.board,
		OverviewCities: cities,
		Log:            log,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body io.Reader) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestCurrent_Success(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	code, body := env.do(t, http.MethodGet, "/api/v1/weather/current?city=London&units=imperial", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "20°F", body["temperature"])
	assert.Equal(t, "3.0 mph", body["wind"])
	assert.Equal(t, "imperial", body["displayUnits"])

	searches, err := env.recent.List(context.Background())
	require.NoError(t, err)
	require.Len(t, searches, 1)
	assert.Equal(t, "London", searches[0].City)
}

func TestCurrent_Coordinates(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	code, body := env.do(t, http.MethodGet, "/api/v1/weather/current?lat=51.5&lon=-0.12", nil)

	require.Equal(t, http.StatusOK, code)
	record := body["record"].(map[string]any)
	assert.Equal(t, "51.5,-0.12", record["city"])
}

func TestCurrent_UsesStoredUnitPreference(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	code, _ := env.do(t, http.MethodPut, "/api/v1/preferences/units", strings.NewReader(`{"units":"imperial"}`))
	require.Equal(t, http.StatusOK, code)

	code, body := env.do(t, http.MethodGet, "/api/v1/weather/current?city=Paris", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "imperial", body["displayUnits"])
}

func TestCurrent_ErrorMapping(t *testing.T) {
	env := newTestEnv(t, stubFetcher{
		"Atlantis": &weather.NotFoundError{Location: weather.CityLocation("Atlantis")},
		"Down":     &weather.ProviderError{StatusCode: http.StatusServiceUnavailable},
		"Slow":     &weather.TransportError{Timeout: true, Err: context.DeadlineExceeded},
		"Offline":  &weather.TransportError{Err: errors.New("connection refused")},
		"Weird":    errors.New("boom"),
	}, nil)

	cases := []struct {
		target string
		want   int
	}{
		{"/api/v1/weather/current?city=%20%20", http.StatusBadRequest},
		{"/api/v1/weather/current?city=Paris&units=kelvin", http.StatusBadRequest},
		{"/api/v1/weather/current?lat=51.5", http.StatusBadRequest},
		{"/api/v1/weather/current?lat=120&lon=0", http.StatusBadRequest},
		{"/api/v1/weather/current?city=London&lat=51.5&lon=-0.12", http.StatusBadRequest},
		{"/api/v1/weather/current?city=Atlantis", http.StatusNotFound},
		{"/api/v1/weather/current?city=Down", http.StatusBadGateway},
		{"/api/v1/weather/current?city=Slow", http.StatusGatewayTimeout},
		{"/api/v1/weather/current?city=Offline", http.StatusBadGateway},
		{"/api/v1/weather/current?city=Weird", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			code, body := env.do(t, http.MethodGet, tc.target, nil)
			assert.Equal(t, tc.want, code)
			assert.Equal(t, true, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}

	searches, err := env.recent.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, searches)
}

func TestCurrent_NotFoundMessageNamesCity(t *testing.T) {
	env := newTestEnv(t, stubFetcher{
		"Atlantis": &weather.NotFoundError{Location: weather.CityLocation("Atlantis")},
	}, nil)

	_, body := env.do(t, http.MethodGet, "/api/v1/weather/current?city=Atlantis", nil)
	assert.Contains(t, body["message"], "Atlantis")
}

func TestOverview_PartialFailure(t *testing.T) {
	env := newTestEnv(t, stubFetcher{
		"Atlantis": &weather.NotFoundError{Location: weather.CityLocation("Atlantis")},
	}, []string{"London", "Atlantis", "Tokyo"})

	code, body := env.do(t, http.MethodGet, "/api/v1/weather/overview", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "metric", body["units"])
	assert.Equal(t, false, body["allFailed"])
	assert.NotContains(t, body, "message")

	cards := body["cards"].([]any)
	require.Len(t, cards, 2)
	assert.Equal(t, "London", cards[0].(map[string]any)["record"].(map[string]any)["city"])

	failed := body["failed"].([]any)
	require.Len(t, failed, 1)
	assert.Equal(t, "Atlantis", failed[0].(map[string]any)["city"])
}

func TestOverview_AllFailed(t *testing.T) {
	env := newTestEnv(t, stubFetcher{
		"London": &weather.ProviderError{StatusCode: 500},
		"Tokyo":  &weather.ProviderError{StatusCode: 500},
	}, []string{"London", "Tokyo"})

	code, body := env.do(t, http.MethodGet, "/api/v1/weather/overview?units=imperial", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["allFailed"])
	assert.Equal(t, allFailedMessage, body["message"])
	assert.Empty(t, body["cards"])
}

func TestLatestOverview(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	code, _ := env.do(t, http.MethodGet, "/api/v1/weather/overview/latest", nil)
	assert.Equal(t, http.StatusNotFound, code)

	env.board.Save(store.Overview{
		Units:  weather.UnitsMetric,
		Result: weather.BatchResult{Records: []weather.Record{{City: "Cairo", Units: weather.UnitsMetric}}},
	})

	code, body := env.do(t, http.MethodGet, "/api/v1/weather/overview/latest?units=metric", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["cards"], 1)
	assert.NotEmpty(t, body["refreshedAt"])
}

func TestRecentSearches(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	code, body := env.do(t, http.MethodGet, "/api/v1/searches/recent", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["searches"])

	for _, city := range []string{"London", "Paris", "london"} {
		code, _ = env.do(t, http.MethodGet, "/api/v1/weather/current?city="+city, nil)
		require.Equal(t, http.StatusOK, code)
	}

	_, body = env.do(t, http.MethodGet, "/api/v1/searches/recent", nil)
	searches := body["searches"].([]any)
	require.Len(t, searches, 2)
	assert.Equal(t, "london", searches[0].(map[string]any)["city"])
	assert.Equal(t, "Paris", searches[1].(map[string]any)["city"])
}

func TestSuggest(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, body := env.do(t, http.MethodGet, "/api/v1/cities/suggest?q=to", nil)
	assert.Equal(t, []any{"Tokyo", "Toronto"}, body["suggestions"])

	_, body = env.do(t, http.MethodGet, "/api/v1/cities/suggest", nil)
	assert.Equal(t, []any{}, body["suggestions"])
}

func TestUnitPreference(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	_, body := env.do(t, http.MethodGet, "/api/v1/preferences/units", nil)
	assert.Equal(t, "metric", body["units"])

	code, _ := env.do(t, http.MethodPut, "/api/v1/preferences/units", strings.NewReader(`{"units":"kelvin"}`))
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodPut, "/api/v1/preferences/units", strings.NewReader(`{"units":"imperial"}`))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "imperial", body["units"])

	_, body = env.do(t, http.MethodGet, "/api/v1/preferences/units", nil)
	assert.Equal(t, "imperial", body["units"])
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	env.pinger.On("Ping", mock.Anything).Return(nil).Once()
	code, body := env.do(t, http.MethodGet, "/api/v1/status", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "openweather", body["provider"])

	env.pinger.On("Ping", mock.Anything).Return(&weather.ProviderError{StatusCode: 401, Message: "Invalid API key"}).Once()
	code, body = env.do(t, http.MethodGet, "/api/v1/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, "Invalid API key", body["message"])

	env.pinger.AssertExpectations(t)
}
