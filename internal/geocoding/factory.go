package geocoding

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeVWorld represents the VWorld address API (default).
	ProviderTypeVWorld ProviderType = "vworld"
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim geocoding provider.
	ProviderTypeNominatim ProviderType = "nominatim"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type       ProviderType // Type of provider to create
	APIKey     string       // API key (VWorld and Google)
	RateLimit  int          // Requests per second enforced by the Google client, 0 disables it
	HTTPClient *http.Client // Shared HTTP client for all workers
	Logger     *slog.Logger // Logger for the provider

	AddressFallback bool // Nominatim only: retry not-found addresses with fewer components
}

// NewProvider creates a geocoding provider based on the provided configuration.
//
// Supported provider types:
// - "vworld": VWorld address API (requires API key)
// - "google": Google Maps Geocoding API (requires API key)
// - "nominatim": OpenStreetMap Nominatim API (free, no API key required)
//
// Returns an error if the provider type is unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	switch config.Type {
	case ProviderTypeVWorld:
		return newVWorldProvider(config)
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return newNominatimProvider(config), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// newVWorldProvider creates a VWorld geocoding provider.
func newVWorldProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for VWorld provider")
	}

	return NewVWorldProvider(config.HTTPClient, config.APIKey, config.Logger), nil
}

// newGoogleProvider creates a Google Maps geocoding provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
		maps.WithHTTPClient(config.HTTPClient),
	}

	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}

// newNominatimProvider creates a Nominatim geocoding provider.
func newNominatimProvider(config ProviderConfig) Provider {
	var opts []NominatimOption
	if config.AddressFallback {
		opts = append(opts, WithAddressFallback())
	}

	return NewNominatimProvider(config.HTTPClient, config.Logger, opts...)
}
