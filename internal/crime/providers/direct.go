package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/safezip/zip-safety-lookup/internal/common"
	"github.com/safezip/zip-safety-lookup/internal/crime"
)

// Direct calls the upstream crime statistics API with a server-held
// credential. This variant must only run in a backend context; the key
// never appears in responses or log lines.
type Direct struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewDirect creates a provider that talks to the upstream API directly.
func NewDirect(client *http.Client, baseURL, apiKey string) *Direct {
	return &Direct{
		name:    "direct",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newCircuit("crime-direct"),
	}
}

func (d *Direct) Name() string {
	return d.name
}

func (d *Direct) FetchStats(ctx context.Context, zip, stateAbbr string) (crime.Stats, error) {
	if d.apiKey == "" {
		return crime.Stats{}, fmt.Errorf("%w: direct provider api key is not configured", crime.ErrUnavailable)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("zip", zip)
		if stateAbbr != "" {
			values.Set("state", stateAbbr)
		}
		values.Set("api_key", d.apiKey)

		u := fmt.Sprintf("%s?%s", d.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, d.httpCfg, d.circuit, buildRequest)
	if err != nil {
		// The request URL carries the credential; report only the class.
		return crime.Stats{}, fmt.Errorf("%w: upstream request failed", crime.ErrUnavailable)
	}
	defer resp.Body.Close()

	if !common.HasAny(resp.Header.Get("Content-Type"), "application/json") {
		return crime.Stats{}, fmt.Errorf("%w: content-type %q", crime.ErrBadResponse, resp.Header.Get("Content-Type"))
	}

	var payload struct {
		Error        string   `json:"error"`
		ViolentRate  *float64 `json:"violentRate"`
		PropertyRate *float64 `json:"propertyRate"`
		Year         *int     `json:"year"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return crime.Stats{}, fmt.Errorf("%w: %v", crime.ErrBadResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if payload.Error != "" {
			return crime.Stats{}, fmt.Errorf("%w: %s", crime.ErrRejected, payload.Error)
		}
		return crime.Stats{}, fmt.Errorf("%w: status %d", crime.ErrRejected, resp.StatusCode)
	}

	return crime.Stats{
		ViolentRate:  payload.ViolentRate,
		PropertyRate: payload.PropertyRate,
		Year:         payload.Year,
	}, nil
}
