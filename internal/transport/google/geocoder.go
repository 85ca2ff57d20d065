// Package google resolves addresses through the Google Geocoding API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/metrics"
)

// DefaultBaseURL is the public geocoding endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Config holds the geocoder settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Geocoder implements domain.Geocoder.
type Geocoder struct {
	http    *http.Client
	apiKey  string
	baseURL string
	logger  *zap.Logger
}

// NewGeocoder creates a geocoder. Without an API key every lookup resolves
// to "no match".
func NewGeocoder(cfg *Config) *Geocoder {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.APIKey == "" {
		cfg.Logger.Warn("Geocoding API key is not set, locations will not be geocoded")
	}
	return &Geocoder{
		http:    &http.Client{Timeout: timeout},
		apiKey:  cfg.APIKey,
		baseURL: base,
		logger:  cfg.Logger,
	}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves address to its first match.
func (g *Geocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	if g.apiKey == "" || address == "" {
		return domain.Coordinates{}, false, nil
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return domain.Coordinates{}, false, fmt.Errorf("%w: %w", domain.ErrGeocoderError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return domain.Coordinates{}, false, fmt.Errorf("%w: HTTP %d", domain.ErrGeocoderError, resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return domain.Coordinates{}, false, fmt.Errorf("%w: decode: %w", domain.ErrGeocoderError, err)
	}

	switch body.Status {
	case "OK":
		if len(body.Results) == 0 {
			break
		}
		metrics.GeocodeRequestsTotal.WithLabelValues("ok").Inc()
		loc := body.Results[0].Geometry.Location
		return domain.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, true, nil
	case "OVER_QUERY_LIMIT":
		metrics.GeocodeRequestsTotal.WithLabelValues("rate_limited").Inc()
		return domain.Coordinates{}, false, fmt.Errorf("%w: %s", domain.ErrRateLimited, body.ErrorMessage)
	case "ZERO_RESULTS":
	default:
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return domain.Coordinates{}, false, fmt.Errorf("%w: status %s: %s",
			domain.ErrGeocoderError, body.Status, body.ErrorMessage)
	}

	metrics.GeocodeRequestsTotal.WithLabelValues("no_match").Inc()
	return domain.Coordinates{}, false, nil
}
