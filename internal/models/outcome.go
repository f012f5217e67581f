package models

import "fmt"

// OutcomeKind classifies the result of a single geocoding lookup.
type OutcomeKind int

const (
	// OutcomeSuccess means the address resolved to a coordinate pair.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeSkippedEmptyAddress means the address was empty and no request was made.
	OutcomeSkippedEmptyAddress
	// OutcomeNotFound means the provider had no match for the address.
	OutcomeNotFound
	// OutcomeTransientAPIError covers rate limiting, HTTP failures and provider-reported errors.
	OutcomeTransientAPIError
	// OutcomeFatalError aborts the whole run.
	OutcomeFatalError
)

// String returns the label used in logs and metrics.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkippedEmptyAddress:
		return "skipped"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeTransientAPIError:
		return "api_error"
	case OutcomeFatalError:
		return "fatal"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Outcome is the tagged result of one lookup.
// Coordinates is meaningful only for OutcomeSuccess, Err only for the two error kinds.
type Outcome struct {
	Kind        OutcomeKind
	Coordinates Coordinates
	Err         error
}

// Success builds a successful outcome.
func Success(lat, lon float64) Outcome {
	return Outcome{Kind: OutcomeSuccess, Coordinates: Coordinates{Latitude: lat, Longitude: lon}}
}

// SkippedEmptyAddress builds the outcome for an empty or missing address.
func SkippedEmptyAddress() Outcome {
	return Outcome{Kind: OutcomeSkippedEmptyAddress}
}

// NotFound builds the outcome for an address the provider could not match.
func NotFound() Outcome {
	return Outcome{Kind: OutcomeNotFound}
}

// TransientAPIError builds a per-row recoverable failure.
func TransientAPIError(err error) Outcome {
	return Outcome{Kind: OutcomeTransientAPIError, Err: err}
}

// FatalError builds a run-aborting failure.
func FatalError(err error) Outcome {
	return Outcome{Kind: OutcomeFatalError, Err: err}
}

// IsFatal reports whether the outcome aborts the run.
func (o Outcome) IsFatal() bool {
	return o.Kind == OutcomeFatalError
}
