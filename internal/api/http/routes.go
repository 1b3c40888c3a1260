package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	suggestLimit  = 5
	statusTimeout = 5 * time.Second

	allFailedMessage = "Unable to load weather data for major cities. Please try again later."
)

var validate = validator.New()

// Pinger probes the upstream weather provider.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Service        *weather.Service
	Provider       Pinger
	Recent         *prefs.RecentSearches
	Units          *prefs.UnitPreference
	Board          *store.OverviewBoard
	OverviewCities []string
	Log            logrus.FieldLogger
}

type handlers struct {
	Deps
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	deps.Log = deps.Log.WithField("component", "http_api")
	h := &handlers{Deps: deps}

	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", h.current)
	v1.Get("/weather/overview", h.overview)
	v1.Get("/weather/overview/latest", h.latestOverview)
	v1.Get("/searches/recent", h.recentSearches)
	v1.Get("/cities/suggest", h.suggest)
	v1.Get("/preferences/units", h.getUnits)
	v1.Put("/preferences/units", h.putUnits)
	v1.Get("/status", h.status)
}

// ErrorHandler renders every handler error as {error, message} JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// currentQuery holds query parameters for a single lookup.
type currentQuery struct {
	City  string `query:"city"`
	Lat   string `query:"lat" validate:"omitempty,latitude"`
	Lon   string `query:"lon" validate:"omitempty,longitude"`
	Units string `query:"units" validate:"omitempty,oneof=metric imperial"`
}

func (q currentQuery) toLocation() (weather.Location, error) {
	if q.Lat == "" && q.Lon == "" {
		return weather.CityLocation(q.City), nil
	}
	if q.Lat == "" || q.Lon == "" {
		return weather.Location{}, errors.New("lat and lon must be provided together")
	}
	if strings.TrimSpace(q.City) != "" {
		return weather.Location{}, errors.New("use either city or lat and lon, not both")
	}

	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return weather.Location{}, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return weather.Location{}, errors.New("invalid lon")
	}
	return weather.CoordLocation(lat, lon), nil
}

// unitsQuery holds the optional unit system of list endpoints.
type unitsQuery struct {
	Units string `query:"units" validate:"omitempty,oneof=metric imperial"`
}

type unitsBody struct {
	Units string `json:"units" validate:"required,oneof=metric imperial"`
}

type overviewResponse struct {
	Units       weather.Units            `json:"units"`
	Cards       []weather.Card           `json:"cards"`
	Failed      []weather.FailedLocation `json:"failed"`
	AllFailed   bool                     `json:"allFailed"`
	Message     string                   `json:"message,omitempty"`
	RefreshedAt *time.Time               `json:"refreshedAt,omitempty"`
}

func (h *handlers) current(c *fiber.Ctx) error {
	var q currentQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	loc, err := q.toLocation()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	units, err := h.resolveUnits(ctx, q.Units)
	if err != nil {
		return err
	}

	rec, err := h.Service.Current(ctx, loc, units)
	if err != nil {
		h.Log.WithFields(logrus.Fields{
			"location": loc.String(),
			"class":    weather.Classify(err),
		}).Warnf("current weather lookup failed: %v", err)
		return toHTTPError(err)
	}

	if _, err := h.Recent.Add(ctx, rec.City, rec.Country); err != nil {
		h.Log.Warnf("failed to record recent search: %v", err)
	}

	return c.JSON(weather.NewCard(rec, units))
}

func (h *handlers) overview(c *fiber.Ctx) error {
	units, err := h.unitsFromQuery(c)
	if err != nil {
		return err
	}

	result := h.Service.Overview(c.UserContext(), h.OverviewCities, units)
	return c.JSON(newOverviewResponse(units, result))
}

func (h *handlers) latestOverview(c *fiber.Ctx) error {
	units, err := h.unitsFromQuery(c)
	if err != nil {
		return err
	}

	o, err := h.Board.Latest(units)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no overview available yet")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load overview")
	}

	resp := newOverviewResponse(units, o.Result)
	resp.RefreshedAt = &o.RefreshedAt
	return c.JSON(resp)
}

func (h *handlers) recentSearches(c *fiber.Ctx) error {
	searches, err := h.Recent.List(c.UserContext())
	if err != nil {
		h.Log.Errorf("failed to list recent searches: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load recent searches")
	}
	if searches == nil {
		searches = []prefs.Search{}
	}
	return c.JSON(fiber.Map{"searches": searches})
}

func (h *handlers) suggest(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"suggestions": weather.Suggest(c.Query("q"), weather.PopularCities, suggestLimit),
	})
}

func (h *handlers) getUnits(c *fiber.Ctx) error {
	units, err := h.Units.Get(c.UserContext())
	if err != nil {
		h.Log.Errorf("failed to load unit preference: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load unit preference")
	}
	return c.JSON(fiber.Map{"units": units})
}

func (h *handlers) putUnits(c *fiber.Ctx) error {
	var body unitsBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	units, err := h.Units.Set(c.UserContext(), body.Units)
	if err != nil {
		if errors.Is(err, weather.ErrInvalidUnits) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		h.Log.Errorf("failed to save unit preference: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save unit preference")
	}
	return c.JSON(fiber.Map{"units": units})
}

func (h *handlers) status(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), statusTimeout)
	defer cancel()

	if err := h.Provider.Ping(ctx); err != nil {
		h.Log.WithField("class", weather.Classify(err)).Warnf("provider status check failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"provider": h.Provider.Name(),
			"status":   "unavailable",
			"message":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"provider": h.Provider.Name(),
		"status":   "ok",
	})
}

func (h *handlers) unitsFromQuery(c *fiber.Ctx) (weather.Units, error) {
	var q unitsQuery
	if err := c.QueryParser(&q); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return h.resolveUnits(c.UserContext(), q.Units)
}

// resolveUnits uses the requested units, or the stored preference when none were given.
func (h *handlers) resolveUnits(ctx context.Context, raw string) (weather.Units, error) {
	if raw != "" {
		units, err := weather.ParseUnits(raw)
		if err != nil {
			return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return units, nil
	}

	units, err := h.Units.Get(ctx)
	if err != nil {
		h.Log.Errorf("failed to load unit preference: %v", err)
		return "", fiber.NewError(fiber.StatusInternalServerError, "failed to load unit preference")
	}
	return units, nil
}

func newOverviewResponse(units weather.Units, result weather.BatchResult) overviewResponse {
	failed := result.Failed
	if failed == nil {
		failed = []weather.FailedLocation{}
	}

	resp := overviewResponse{
		Units:     units,
		Cards:     weather.NewCards(result.Records, units),
		Failed:    failed,
		AllFailed: result.AllFailed(),
	}
	if resp.AllFailed {
		resp.Message = allFailedMessage
	}
	return resp
}

// toHTTPError maps a classified lookup error to its HTTP status.
func toHTTPError(err error) error {
	switch weather.Classify(err) {
	case "invalid_request":
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case "not_found":
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case "timeout":
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	case "provider", "transport":
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}
