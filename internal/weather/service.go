package weather

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Service runs single lookups and overview batches against a Fetcher.
type Service struct {
	fetcher     Fetcher
	concurrency int
	log         logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency caps the number of in-flight fetches in Overview. n <= 0 means no cap.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		s.concurrency = n
	}
}

// WithLogger sets the logger used for batch warnings.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a new Service.
func NewService(fetcher Fetcher, opts ...Option) *Service {
	s := &Service{
		fetcher: fetcher,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "weather_service")
	return s
}

// Current fetches and normalizes the weather for one location.
func (s *Service) Current(ctx context.Context, loc Location, units Units) (Record, error) {
	if loc.Coord == nil && loc.Query() == "" {
		return Record{}, ErrEmptyLocation
	}
	if _, err := ParseUnits(string(units)); err != nil {
		return Record{}, err
	}
	if loc.Coord == nil {
		loc.City = loc.Query()
	}
	return s.fetcher.FetchWeather(ctx, loc, units)
}

// Overview fetches every city concurrently and keeps whatever succeeded.
// A failing city is logged and listed in Failed; it never affects its siblings.
// Cancelling ctx reaches all outstanding fetches, and Overview still waits for them.
func (s *Service) Overview(ctx context.Context, cities []string, units Units) BatchResult {
	type outcome struct {
		record Record
		err    error
	}

	outcomes := make([]outcome, len(cities))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for i, city := range cities {
		i, city := i, city // per-iteration copies (module targets go1.21 loop semantics)
		g.Go(func() error {
			r, err := s.Current(ctx, CityLocation(city), units)
			outcomes[i] = outcome{record: r, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{Records: make([]Record, 0, len(cities))}
	for i, o := range outcomes {
		if o.err != nil {
			s.log.Warnf("overview: failed to fetch %q: %v", cities[i], o.err)
			result.Failed = append(result.Failed, FailedLocation{City: cities[i], Reason: o.err.Error()})
			continue
		}
		result.Records = append(result.Records, o.record)
	}

	if result.AllFailed() && len(cities) > 0 {
		s.log.Errorf("overview: all %d cities failed", len(cities))
	} else {
		s.log.Debugf("overview: %d of %d cities loaded", len(result.Records), len(cities))
	}

	return result
}

// Classify names the error class for logs and API responses.
func Classify(err error) string {
	var (
		nf *NotFoundError
		pe *ProviderError
		te *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyLocation), errors.Is(err, ErrInvalidUnits):
		return "invalid_request"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &te):
		if te.Timeout {
			return "timeout"
		}
		return "transport"
	case errors.As(err, &pe):
		return "provider"
	default:
		return "unclassified"
	}
}
