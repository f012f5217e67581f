package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"googlemaps.github.io/maps"
)

const providerGoogle = "google"

// googleStatusPrefix marks errors built by the maps client from an API status
// (OVER_QUERY_LIMIT, REQUEST_DENIED, ...), as opposed to transport failures.
const googleStatusPrefix = "maps: "

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider initializes a new GoogleProvider with the given Maps client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode takes a context and an address string as input, and returns the outcome of
// geocoding it with the Google Maps Geocoding API. ZERO_RESULTS maps to not found,
// API status errors are transient, and everything else aborts the run.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) models.Outcome {
	if address == "" {
		return models.SkippedEmptyAddress()
	}

	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	req := maps.GeocodingRequest{Address: address}
	geocodeResponse, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		if msg := err.Error(); strings.HasPrefix(msg, googleStatusPrefix) {
			code, text, _ := strings.Cut(strings.TrimPrefix(msg, googleStatusPrefix), " - ")
			return models.TransientAPIError(&APIError{Provider: providerGoogle, Code: code, Message: text})
		}
		return models.FatalError(fmt.Errorf("failed to geocode address: %w", err))
	}

	if len(geocodeResponse) == 0 {
		return models.NotFound()
	}
	coords := geocodeResponse[0].Geometry.Location

	return models.Success(coords.Lat, coords.Lng)
}
