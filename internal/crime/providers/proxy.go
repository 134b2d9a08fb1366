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

// Proxy fetches crime stats from a backend endpoint that holds the
// upstream credential, so the key never reaches this process.
type Proxy struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewProxy creates a provider that calls a local crime API path, e.g.
// "/api/crime" behind the same host.
func NewProxy(client *http.Client, baseURL string) *Proxy {
	return &Proxy{
		name:    "proxy",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newCircuit("crime-proxy"),
	}
}

func (p *Proxy) Name() string {
	return p.name
}

func (p *Proxy) FetchStats(ctx context.Context, zip, stateAbbr string) (crime.Stats, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("zip", zip)
		if stateAbbr != "" {
			values.Set("state", stateAbbr)
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return crime.Stats{}, fmt.Errorf("%w: %v", crime.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// A non-JSON content type means the request never reached the crime
	// handler (SPA fallback page, misrouted path), which is a different
	// failure than the handler reporting an error.
	if !common.HasAny(resp.Header.Get("Content-Type"), "application/json") {
		return crime.Stats{}, fmt.Errorf("%w: content-type %q; crime endpoint is not routed",
			crime.ErrBadResponse, resp.Header.Get("Content-Type"))
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

	// Absent rate fields stay nil and propagate as Unknown.
	return crime.Stats{
		ViolentRate:  payload.ViolentRate,
		PropertyRate: payload.PropertyRate,
		Year:         payload.Year,
	}, nil
}
