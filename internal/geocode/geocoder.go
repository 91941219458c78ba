// Package geocode resolves street addresses to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/domain"
)

// Location is a resolved address.
type Location struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
	Street           string
	City             string
	State            string
	Zipcode          string
	Country          string
}

// Geocoder resolves a free-form address to a location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

// Config holds geocoder settings.
type Config struct {
	// APIKey authenticates against the geocoding provider.
	APIKey string

	// BaseURL is the provider endpoint. Defaults to the MapQuest open API.
	BaseURL string

	// Timeout bounds a single geocoding request.
	Timeout time.Duration
}

// DefaultBaseURL is the MapQuest open geocoding endpoint.
const DefaultBaseURL = "https://open.mapquestapi.com/geocoding/v1/address"

// MapQuest is a Geocoder backed by the MapQuest geocoding API.
type MapQuest struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewMapQuest creates a MapQuest geocoder.
func NewMapQuest(cfg Config, logger zerolog.Logger) *MapQuest {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &MapQuest{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "geocoder").Logger(),
	}
}

// mapquestResponse mirrors the slice of the provider payload we consume.
type mapquestResponse struct {
	Results []struct {
		Locations []struct {
			Street     string `json:"street"`
			City       string `json:"adminArea5"`
			State      string `json:"adminArea3"`
			PostalCode string `json:"postalCode"`
			Country    string `json:"adminArea1"`
			LatLng     struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"latLng"`
		} `json:"locations"`
	} `json:"results"`
}

// Geocode resolves the address. An address the provider cannot place maps to
// domain.ErrGeocodeFailed.
func (g *MapQuest) Geocode(ctx context.Context, address string) (*Location, error) {
	reqURL := fmt.Sprintf("%s?key=%s&location=%s&maxResults=1",
		g.baseURL, url.QueryEscape(g.apiKey), url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Msg("geocode request failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrGeocodeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Error().Int("status", resp.StatusCode).Msg("geocode provider error")
		return nil, fmt.Errorf("%w: provider returned status %d", domain.ErrGeocodeFailed, resp.StatusCode)
	}

	var payload mapquestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: invalid provider response: %v", domain.ErrGeocodeFailed, err)
	}

	if len(payload.Results) == 0 || len(payload.Results[0].Locations) == 0 {
		return nil, domain.ErrGeocodeFailed
	}

	loc := payload.Results[0].Locations[0]
	if loc.LatLng.Lat == 0 && loc.LatLng.Lng == 0 {
		return nil, domain.ErrGeocodeFailed
	}

	return &Location{
		Lat:              loc.LatLng.Lat,
		Lng:              loc.LatLng.Lng,
		FormattedAddress: formatAddress(loc.Street, loc.City, loc.State, loc.PostalCode, loc.Country),
		Street:           loc.Street,
		City:             loc.City,
		State:            loc.State,
		Zipcode:          loc.PostalCode,
		Country:          loc.Country,
	}, nil
}

func formatAddress(parts ...string) string {
	var present []string
	for _, p := range parts {
		if p != "" {
			present = append(present, p)
		}
	}
	return strings.Join(present, ", ")
}
