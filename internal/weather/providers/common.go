package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// maxErrorBody bounds how much of an error response we read for its message.
const maxErrorBody = 64 << 10

var (
	errNoHTTPClient  = errors.New("http client not configured")
	errCircuitOpen   = errors.New("circuit breaker open")
	errMalformedBody = errors.New("malformed provider response")
)

// statusError carries a response the circuit breaker should count as a failure
// (rate limiting and server errors). The body has already been read and closed.
type statusError struct {
	StatusCode int
	Body       []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// callerDoneError is a request abandoned because the caller's context was
// cancelled or expired. It says nothing about the provider's health.
type callerDoneError struct {
	err error
}

func (e *callerDoneError) Error() string { return e.err.Error() }

func (e *callerDoneError) Unwrap() error { return e.err }

// isBreakerSuccess keeps caller cancellations out of the failure counts.
func isBreakerSuccess(err error) bool {
	var cd *callerDoneError
	return err == nil || errors.As(err, &cd)
}

// defaultBreakerSettings mirrors the provider defaults used across the service.
func defaultBreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: isBreakerSuccess,
	}
}

// doRequest executes req exactly once through the circuit breaker.
// Transport errors, 429 and 5xx count as breaker failures and come back as errors;
// any other response, including 404, is returned to the caller with its body open.
// A request cut short by the caller's own context does not count against the provider.
func doRequest(client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			if req.Context().Err() != nil {
				return nil, &callerDoneError{err: execErr}
			}
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &statusError{StatusCode: resp.StatusCode, Body: body}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// classifyRequestError maps a doRequest failure onto the weather error taxonomy.
func classifyRequestError(ctx context.Context, err error) error {
	var se *statusError
	if errors.As(err, &se) {
		return &weather.ProviderError{
			StatusCode: se.StatusCode,
			Message:    providerMessage(se.Body),
			Err:        se,
		}
	}

	if errors.Is(err, errCircuitOpen) {
		return &weather.ProviderError{
			Message: "weather provider temporarily unavailable",
			Err:     err,
		}
	}

	if errors.Is(err, errNoHTTPClient) {
		return &weather.ProviderError{Err: err}
	}

	return transportError(ctx, err)
}

// transportError strips the *url.Error wrapper, whose message embeds the
// request URL and therefore the API key.
func transportError(ctx context.Context, err error) *weather.TransportError {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &weather.TransportError{Timeout: ue.Timeout(), Err: ue.Err}
	}
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	return &weather.TransportError{Timeout: timeout, Err: err}
}
