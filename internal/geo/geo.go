package geo

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a ZIP cannot be resolved to a place, either
// because the lookup service answered with a non-success status or because
// its payload contained no place entries. Callers treat both the same way.
var ErrNotFound = errors.New("ZIP lookup failed")

// GeoInfo is the resolved location for a ZIP code. Immutable once built;
// the Result that triggered the lookup owns it.
type GeoInfo struct {
	Zip       string  `json:"zip"`
	City      string  `json:"city"`
	State     string  `json:"state"` // 2-letter abbreviation
	StateName string  `json:"stateName"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// Geocoder resolves a ZIP code to a place. The zip is expected to already
// satisfy the 5-digit invariant; implementations do not re-validate it.
type Geocoder interface {
	Resolve(ctx context.Context, zip string) (GeoInfo, error)
}
