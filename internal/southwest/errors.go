package southwest

import (
	"errors"
	"fmt"
)

var (
	// ErrRetriesExhausted is wrapped by FatalAPIError.
	ErrRetriesExhausted = errors.New("southwest: retries exhausted")
	// ErrMalformedResponse means a required page was absent or did not match
	// the expected shape.
	ErrMalformedResponse = errors.New("southwest: malformed response")
	// ErrAPIKeyUnavailable means the configuration resource did not yield a key.
	ErrAPIKeyUnavailable = errors.New("southwest: api key unavailable")
)

// FatalAPIError is returned once every attempt of a call came back with a
// transient marker. The call must not be retried further.
type FatalAPIError struct {
	URL      string
	Attempts int
	Marker   string
}

func (e *FatalAPIError) Error() string {
	return fmt.Sprintf("southwest: %s still %s after %d attempts", e.URL, e.Marker, e.Attempts)
}

func (e *FatalAPIError) Unwrap() error { return ErrRetriesExhausted }

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
