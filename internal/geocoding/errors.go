package geocoding

import (
	"errors"
	"fmt"
)

// Common errors shared by providers.
var (
	ErrUnexpectedResponse = errors.New("provider returned an unexpected response")
	ErrInvalidCoords      = errors.New("provider returned invalid coordinates")
	ErrEmptyResponse      = errors.New("provider returned empty response")
)

// APIError is a per-row failure reported by the provider, either through a non-2xx
// HTTP status or through an error status in the response body.
type APIError struct {
	Provider   string // Provider is the name of the backend that failed.
	StatusCode int    // StatusCode is the HTTP status, 0 when the error came from the body.
	Code       string // Code is the provider error code, if any.
	Message    string // Message is the HTTP reason or the provider error text.
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error [%s] %s", e.Provider, e.Code, e.Message)
}
