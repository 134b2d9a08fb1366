package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// ZippopotamClient resolves US ZIP codes via the public Zippopotam.us API.
// The service requires no authentication.
type ZippopotamClient struct {
	client  *http.Client
	baseURL string
	circuit *gobreaker.CircuitBreaker
}

// NewZippopotamClient creates a geocoder backed by api.zippopotam.us.
func NewZippopotamClient(client *http.Client) *ZippopotamClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "zippopotam",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &ZippopotamClient{
		client:  client,
		baseURL: "https://api.zippopotam.us/us",
		circuit: cb,
	}
}

// Resolve performs a single lookup round trip. No retry: one failed
// attempt surfaces immediately to the caller.
func (c *ZippopotamClient) Resolve(ctx context.Context, zip string) (GeoInfo, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(zip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return GeoInfo{}, err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		return resp, nil
	})
	if err != nil {
		return GeoInfo{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return GeoInfo{}, fmt.Errorf("unexpected result type from circuit breaker")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return GeoInfo{}, fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	}

	// Zippopotam returns coordinates as strings.
	var payload struct {
		Places []struct {
			PlaceName string `json:"place name"`
			State     string `json:"state"`
			StateAbbr string `json:"state abbreviation"`
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"places"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return GeoInfo{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	if len(payload.Places) == 0 {
		return GeoInfo{}, fmt.Errorf("%w: no places in response", ErrNotFound)
	}

	place := payload.Places[0]

	lat, err := strconv.ParseFloat(place.Latitude, 64)
	if err != nil {
		return GeoInfo{}, fmt.Errorf("%w: bad latitude %q", ErrNotFound, place.Latitude)
	}
	lng, err := strconv.ParseFloat(place.Longitude, 64)
	if err != nil {
		return GeoInfo{}, fmt.Errorf("%w: bad longitude %q", ErrNotFound, place.Longitude)
	}

	return GeoInfo{
		Zip:       zip,
		City:      place.PlaceName,
		State:     place.StateAbbr,
		StateName: place.State,
		Lat:       lat,
		Lng:       lng,
	}, nil
}
