package weather

import (
	"errors"
	"fmt"
)

// ErrEmptyLocation is returned before any request when the city name is blank.
var ErrEmptyLocation = errors.New("please enter a city name")

const genericFetchMessage = "failed to fetch weather data"

// NotFoundError means the provider does not know the requested location.
type NotFoundError struct {
	Location Location
}

func (e *NotFoundError) Error() string {
	if e.Location.Coord != nil {
		return fmt.Sprintf("Location %q not found.", e.Location.String())
	}
	return fmt.Sprintf("City %q not found. Please check the spelling.", e.Location.String())
}

// ProviderError covers every other provider-side failure: bad key, rate limit,
// malformed request or response, server errors.
type ProviderError struct {
	StatusCode int // 0 when no HTTP status applies
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return genericFetchMessage
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// TransportError means the provider could not be reached.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return genericFetchMessage
	}
	return genericFetchMessage + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
