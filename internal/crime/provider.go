package crime

import (
	"context"
	"errors"
)

// Error classes for provider failures. All three collapse to one generic
// "couldn't load" message at the API boundary but stay distinguishable in
// logs and metrics.
var (
	// ErrUnavailable means the provider could not be reached at all.
	ErrUnavailable = errors.New("crime data provider unavailable")

	// ErrBadResponse means the provider answered with something that is
	// not the expected JSON shape, usually a routing or config problem.
	ErrBadResponse = errors.New("crime data provider returned a bad response")

	// ErrRejected means the provider answered with an explicit error payload.
	ErrRejected = errors.New("crime data provider rejected the request")
)

// Stats holds raw crime rates for a ZIP, per 100,000 population. A nil
// rate means the figure is unknown; it must never be coerced to zero.
type Stats struct {
	ViolentRate  *float64 `json:"violentRate"`
	PropertyRate *float64 `json:"propertyRate"`
	Year         *int     `json:"year"`
}

// Provider abstracts a crime data source. Implementations include a
// deterministic mock, a same-origin backend proxy, and a direct call to
// the upstream statistics API.
type Provider interface {
	Name() string
	FetchStats(ctx context.Context, zip, stateAbbr string) (Stats, error)
}
