package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/geobatch/internal/models"
)

// NominatimBaseURL -- public Nominatim search endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/search"

const (
	providerNominatim  = "nominatim"
	nominatimUserAgent = "geobatch/1.0 (https://github.com/UnknownOlympus/geobatch)"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the Nominatim API
	log     *slog.Logger // Logger for logging operations
	// userAgent is required by Nominatim usage policy
	userAgent string
	fallback  bool // retry not-found addresses with trailing components removed
}

// NominatimOption configures a NominatimProvider.
type NominatimOption func(*NominatimProvider)

// WithAddressFallback makes Geocode retry a not-found address with progressively
// fewer comma-separated components. A row may then cost up to four requests.
func WithAddressFallback() NominatimOption {
	return func(np *NominatimProvider) {
		np.fallback = true
	}
}

// nominatimResponse represents the JSON response from Nominatim API.
type nominatimResponse struct {
	Lat string `json:"lat"` // Latitude as string
	Lon string `json:"lon"` // Longitude as string
}

// NewNominatimProvider creates a Nominatim provider on top of a shared HTTP client.
func NewNominatimProvider(client HTTPClient, log *slog.Logger, opts ...NominatimOption) *NominatimProvider {
	np := &NominatimProvider{
		client:    client,
		baseURL:   NominatimBaseURL,
		log:       log,
		userAgent: nominatimUserAgent,
	}
	for _, opt := range opts {
		opt(np)
	}

	return np
}

// Geocode converts an address to an outcome with a single Nominatim request.
//
// With WithAddressFallback, a not-found address is retried as the address with trailing
// components removed, then the first component only. Only an empty result moves on to the
// next variation; any other outcome is returned as is.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) models.Outcome {
	if address == "" {
		return models.SkippedEmptyAddress()
	}

	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	if !np.fallback {
		return np.geocodeSingleAddress(ctx, address)
	}

	variations := np.generateAddressFallbacks(address)
	for idx, variation := range variations {
		outcome := np.geocodeSingleAddress(ctx, variation)
		if outcome.Kind != models.OutcomeNotFound {
			if idx > 0 && outcome.Kind == models.OutcomeSuccess {
				np.log.InfoContext(ctx, "Geocoded using fallback address",
					"original", address,
					"fallback", variation,
					"fallback_level", idx)
			}
			return outcome
		}

		np.log.DebugContext(ctx, "Address variation returned no results, trying fallback",
			"variation", variation,
			"fallback_level", idx)
	}

	np.log.DebugContext(ctx, "All address fallbacks exhausted",
		"address", address,
		"variations_tried", len(variations))

	return models.NotFound()
}

// generateAddressFallbacks creates a list of progressively simpler address variations.
func (np *NominatimProvider) generateAddressFallbacks(address string) []string {
	seen := make(map[string]bool)
	variations := []string{}

	addVariation := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variations = append(variations, v)
		}
	}

	addVariation(address)

	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) > 1 {
		addVariation(strings.Join(parts[:len(parts)-1], ", "))

		const lenComponents = 2
		if len(parts) > lenComponents {
			addVariation(strings.Join(parts[:len(parts)-2], ", "))
		}

		addVariation(parts[0])
	}

	return variations
}

// geocodeSingleAddress performs a single geocoding request without fallback logic.
func (np *NominatimProvider) geocodeSingleAddress(ctx context.Context, address string) models.Outcome {
	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return models.FatalError(fmt.Errorf("failed to parse base URL: %w", err))
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return models.FatalError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return models.FatalError(fmt.Errorf("failed to execute geocoding request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.WarnContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return models.TransientAPIError(&APIError{
			Provider:   providerNominatim,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.FatalError(fmt.Errorf("failed to read response body: %w", err))
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		return models.FatalError(fmt.Errorf("failed to decode nominatim response: %w", err))
	}

	if len(results) == 0 {
		return models.NotFound()
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.FatalError(fmt.Errorf("%w: invalid latitude: %s", ErrInvalidCoords, results[0].Lat))
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.FatalError(fmt.Errorf("%w: invalid longitude: %s", ErrInvalidCoords, results[0].Lon))
	}

	return models.Success(lat, lon)
}
