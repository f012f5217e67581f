package geocoding

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"golang.org/x/text/unicode/norm"
)

// DefaultMissingMarker is the literal that spreadsheet exports use for an absent value.
const DefaultMissingMarker = "nan"

// Client translates one address into an outcome by delegating to a Provider.
// It filters out empty addresses before any request is made and logs every success.
type Client struct {
	provider      Provider
	log           *slog.Logger
	prefix        string
	missingMarker string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAddressPrefix prepends prefix to every address (indicating country, city, etc.).
func WithAddressPrefix(prefix string) ClientOption {
	return func(c *Client) {
		c.prefix = prefix
	}
}

// WithMissingMarker overrides the literal treated as a missing address.
func WithMissingMarker(marker string) ClientOption {
	return func(c *Client) {
		c.missingMarker = marker
	}
}

// NewClient wraps provider into a Client.
func NewClient(provider Provider, log *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		provider:      provider,
		log:           log,
		missingMarker: DefaultMissingMarker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode performs a single lookup for address.
func (c *Client) Geocode(ctx context.Context, address string) models.Outcome {
	address = strings.TrimSpace(address)
	if c.isMissing(address) {
		return models.SkippedEmptyAddress()
	}

	query := norm.NFC.String(c.prefix + address)
	outcome := c.provider.Geocode(ctx, query)

	if outcome.Kind == models.OutcomeSuccess {
		c.log.InfoContext(ctx, address+" --> ("+
			formatCoordinate(outcome.Coordinates.Latitude)+", "+
			formatCoordinate(outcome.Coordinates.Longitude)+")")
	}

	return outcome
}

func (c *Client) isMissing(address string) bool {
	if address == "" {
		return true
	}
	return c.missingMarker != "" && strings.EqualFold(address, c.missingMarker)
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
