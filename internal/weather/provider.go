package weather

import "context"

// Fetcher performs one normalized current-weather lookup.
// Implementations return *NotFoundError, *ProviderError or *TransportError on failure.
type Fetcher interface {
	FetchWeather(ctx context.Context, loc Location, units Units) (Record, error)
}
