package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s2"
	"github.com/yair/whats-on/pkg/domain"
)

const opReverseGeocode = "reverse_geocode"

// NominatimClient resolves coordinates to a locality name through an
// OpenStreetMap Nominatim reverse endpoint.
type NominatimClient struct {
	baseURL        string
	userAgent      string
	localityFields []string
	httpClient     *http.Client
	metrics        *Metrics
}

type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	// LocalityFields are address keys tried in order.
	LocalityFields []string
	Timeout        time.Duration
	Metrics        *Metrics
}

func NewNominatimClient(config NominatimConfig) (*NominatimClient, error) {
	if config.BaseURL == "" {
		config.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if config.UserAgent == "" {
		return nil, fmt.Errorf("nominatim user agent is required")
	}
	if len(config.LocalityFields) == 0 {
		config.LocalityFields = []string{"state_district"}
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &NominatimClient{
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		userAgent:      config.UserAgent,
		localityFields: config.LocalityFields,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		metrics: config.Metrics,
	}, nil
}

type nominatimReverseResponse struct {
	Address map[string]string `json:"address"`
	Error   string            `json:"error"`
}

func (c *NominatimClient) Locality(ctx context.Context, lat, lon float64) (string, error) {
	if !s2.LatLngFromDegrees(lat, lon).IsValid() {
		return "", domain.ErrInvalidLocation
	}

	reverseURL := fmt.Sprintf("%s/reverse?format=json&lat=%s&lon=%s",
		c.baseURL,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
	)

	req, err := http.NewRequestWithContext(ctx, "GET", reverseURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(opReverseGeocode, "transport")
		return "", fmt.Errorf("failed to reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.observe(opReverseGeocode, "error")
		return "", fmt.Errorf("nominatim reverse failed: status %d", resp.StatusCode)
	}

	var body nominatimReverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.observe(opReverseGeocode, "malformed")
		return "", fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	c.metrics.observe(opReverseGeocode, "ok")
	for _, field := range c.localityFields {
		if locality := strings.TrimSpace(body.Address[field]); locality != "" {
			return locality, nil
		}
	}
	return "", domain.ErrLocalityNotFound
}
