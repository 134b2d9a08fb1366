package geo

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"
)

// GoogleClient resolves ZIP codes through the Google Geocoding API. It is
// an alternative to the default Zippopotam client for deployments that
// already hold a Google API key.
//
// The kelvins/geocoder package keys requests off a package-level ApiKey,
// so only one GoogleClient should be constructed per process.
type GoogleClient struct{}

// NewGoogleClient configures the underlying library with the API key.
func NewGoogleClient(apiKey string) *GoogleClient {
	geocoder.ApiKey = apiKey
	return &GoogleClient{}
}

// Resolve forward-geocodes the postal code for coordinates, then
// reverse-geocodes those coordinates to recover city and state. The
// library does not take a context, so cancellation is checked between
// the two round trips.
func (c *GoogleClient) Resolve(ctx context.Context, zip string) (GeoInfo, error) {
	location, err := geocoder.Geocoding(geocoder.Address{
		PostalCode: zip,
		Country:    "United States",
	})
	if err != nil {
		return GeoInfo{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	if err := ctx.Err(); err != nil {
		return GeoInfo{}, err
	}

	addresses, err := geocoder.GeocodingReverse(location)
	if err != nil {
		return GeoInfo{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if len(addresses) == 0 {
		return GeoInfo{}, fmt.Errorf("%w: no places in response", ErrNotFound)
	}

	addr := addresses[0]

	return GeoInfo{
		Zip:       zip,
		City:      addr.City,
		State:     StateAbbr(addr.State),
		StateName: addr.State,
		Lat:       location.Latitude,
		Lng:       location.Longitude,
	}, nil
}
