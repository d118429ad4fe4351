// Package osrm implements ports.RoutingProvider over an OSRM-compatible HTTP
// routing service.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"

	"github.com/eapache/go-resiliency/breaker"
)

// Breaker defaults: open after five consecutive failures, probe again after
// thirty seconds, close after one success.
const (
	DefaultErrorThreshold   = 5
	DefaultSuccessThreshold = 1
	DefaultOpenTimeout      = 30 * time.Second
)

type Config struct {
	BaseURL string
	Profile string

	ErrorThreshold   int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	profile    string
	breaker    *breaker.Breaker
}

func NewClient(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.Profile == "" {
		cfg.Profile = "driving"
	}
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = DefaultErrorThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultSuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		profile:    cfg.Profile,
		breaker:    breaker.New(cfg.ErrorThreshold, cfg.SuccessThreshold, cfg.OpenTimeout),
	}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route returns the fastest route. Every failure, including an open breaker,
// wraps ports.ErrRoutingUnavailable.
func (c *Client) Route(ctx context.Context, from, to kernel.Location) (ports.Route, error) {
	var route ports.Route
	err := c.breaker.Run(func() error {
		var err error
		route, err = c.fetch(ctx, from, to)
		return err
	})
	if err != nil {
		return ports.Route{}, fmt.Errorf("%w: %w", ports.ErrRoutingUnavailable, err)
	}
	return route, nil
}

func (c *Client) fetch(ctx context.Context, from, to kernel.Location) (ports.Route, error) {
	// OSRM takes lon,lat pairs.
	endpoint := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, c.profile, from.Longitude(), from.Latitude(), to.Longitude(), to.Latitude())

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.Route{}, fmt.Errorf("osrm: creating request: %w", err)
	}

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return ports.Route{}, fmt.Errorf("osrm: sending request: %w", err)
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResponse.Body, 4<<20))
	if err != nil {
		return ports.Route{}, fmt.Errorf("osrm: reading response: %w", err)
	}

	var wire routeResponse
	if err = json.Unmarshal(body, &wire); err != nil {
		return ports.Route{}, fmt.Errorf("osrm: HTTP %d: decoding response: %w", httpResponse.StatusCode, err)
	}
	if httpResponse.StatusCode != http.StatusOK || wire.Code != "Ok" {
		return ports.Route{}, fmt.Errorf("osrm: HTTP %d: %s: %s", httpResponse.StatusCode, wire.Code, wire.Message)
	}
	if len(wire.Routes) == 0 {
		return ports.Route{}, errors.New("osrm: no route found")
	}

	best := wire.Routes[0]
	geometry := make([]kernel.Location, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		point, err := kernel.NewLocation(pair[1], pair[0])
		if err != nil {
			return ports.Route{}, fmt.Errorf("osrm: invalid geometry: %w", err)
		}
		geometry = append(geometry, point)
	}

	return ports.Route{
		Geometry:       geometry,
		DistanceMeters: best.Distance,
		Duration:       time.Duration(best.Duration * float64(time.Second)),
	}, nil
}
