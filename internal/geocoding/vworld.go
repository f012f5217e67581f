package geocoding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/tidwall/gjson"
)

// VWorldBaseURL -- VWorld address API base URL.
const VWorldBaseURL = "https://api.vworld.kr/req/address"

const providerVWorld = "vworld"

// VWorld response status values.
const (
	vworldStatusError    = "ERROR"
	vworldStatusNotFound = "NOT_FOUND"
)

// VWorldProvider implements geocoding using the VWorld address API (road-name lookup).
type VWorldProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the VWorld API
	apiKey  string       // API key issued by VWorld
	log     *slog.Logger // Logger for logging operations
}

// NewVWorldProvider creates a new VWorld geocoding provider on top of a shared HTTP client.
func NewVWorldProvider(client HTTPClient, apiKey string, log *slog.Logger) *VWorldProvider {
	return &VWorldProvider{
		client:  client,
		baseURL: VWorldBaseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// Geocode converts address into geographic coordinates using the VWorld API.
//
// A non-2xx status or an ERROR body status is a transient API error, NOT_FOUND maps to
// models.OutcomeNotFound, and anything the provider cannot make sense of is fatal.
func (vp *VWorldProvider) Geocode(ctx context.Context, address string) models.Outcome {
	if address == "" {
		return models.SkippedEmptyAddress()
	}

	vp.log.DebugContext(ctx, "Geocoding using VWorld", "address", address)

	reqURL, err := url.Parse(vp.baseURL)
	if err != nil {
		return models.FatalError(fmt.Errorf("failed to parse base URL: %w", err))
	}

	query := reqURL.Query()
	query.Set("service", "address")
	query.Set("request", "getCoord")
	query.Set("key", vp.apiKey)
	query.Set("address", address)
	query.Set("type", "ROAD")
	query.Set("format", "json")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return models.FatalError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := vp.client.Do(req)
	if err != nil {
		return models.FatalError(fmt.Errorf("failed to execute geocoding request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.TransientAPIError(&APIError{
			Provider:   providerVWorld,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.FatalError(fmt.Errorf("failed to read response body: %w", err))
	}

	vp.log.DebugContext(ctx, "VWorld raw response", "body", string(body))

	return parseVWorldResponse(body)
}

func parseVWorldResponse(body []byte) models.Outcome {
	if len(bytes.TrimSpace(body)) == 0 {
		return models.FatalError(ErrEmptyResponse)
	}
	if !gjson.ValidBytes(body) {
		return models.FatalError(fmt.Errorf("%w: body is not valid JSON", ErrUnexpectedResponse))
	}

	status := gjson.GetBytes(body, "response.status")
	if !status.Exists() {
		return models.FatalError(fmt.Errorf("%w: missing response.status", ErrUnexpectedResponse))
	}

	switch status.String() {
	case vworldStatusError:
		return models.TransientAPIError(&APIError{
			Provider: providerVWorld,
			Code:     gjson.GetBytes(body, "response.error.code").String(),
			Message:  gjson.GetBytes(body, "response.error.text").String(),
		})
	case vworldStatusNotFound:
		return models.NotFound()
	}

	point := gjson.GetBytes(body, "response.result.point")
	if !point.IsObject() {
		return models.FatalError(fmt.Errorf("%w: missing response.result.point", ErrUnexpectedResponse))
	}

	lon, err := parseCoordinate(point.Get("x"))
	if err != nil {
		return models.FatalError(fmt.Errorf("invalid longitude: %w", err))
	}
	lat, err := parseCoordinate(point.Get("y"))
	if err != nil {
		return models.FatalError(fmt.Errorf("invalid latitude: %w", err))
	}

	return models.Success(lat, lon)
}

// parseCoordinate accepts both JSON numbers and numeric strings; VWorld sends strings.
func parseCoordinate(value gjson.Result) (float64, error) {
	switch value.Type {
	case gjson.Number:
		return value.Num, nil
	case gjson.String:
		v, err := strconv.ParseFloat(value.Str, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidCoords, value.Str)
		}
		return v, nil
	case gjson.Null, gjson.False, gjson.True, gjson.JSON:
		return 0, fmt.Errorf("%w: %s", ErrInvalidCoords, value.Raw)
	default:
		return 0, fmt.Errorf("%w: missing value", ErrInvalidCoords)
	}
}
