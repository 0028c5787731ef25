package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/civicgrid/foresight/internal/domain/observation"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	requestTimeout = 10 * time.Second
)

// HTTPProvider queries an OpenWeatherMap-compatible current-conditions
// endpoint.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HTTPOption applies a configuration option to the HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) HTTPOption {
	return func(p *HTTPProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// NewHTTPProvider creates a provider with the given API key.
func NewHTTPProvider(apiKey string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type currentResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

// Current fetches the conditions at the coordinate. Rain volume is the
// trailing one-hour accumulation; absent rain blocks decode to zero.
func (p *HTTPProvider) Current(ctx context.Context, lat, lng float64) (observation.Weather, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))
	q.Set("units", "metric")
	q.Set("appid", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return observation.Weather{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return observation.Weather{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return observation.Weather{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return observation.Weather{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return observation.Weather{
		Temperature:   body.Main.Temp,
		Precipitation: body.Rain.OneHour,
		Humidity:      body.Main.Humidity,
		WindSpeed:     body.Wind.Speed,
		Pressure:      body.Main.Pressure,
	}, nil
}
