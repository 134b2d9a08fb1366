package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testZippopotam(baseURL string) *ZippopotamClient {
	c := NewZippopotamClient(&http.Client{Timeout: 5 * time.Second})
	c.baseURL = baseURL
	return c
}

func TestZippopotam_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/90210", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{
			"post code": "90210",
			"places": [{
				"place name": "Beverly Hills",
				"state": "California",
				"state abbreviation": "CA",
				"latitude": "34.0901",
				"longitude": "-118.4065"
			}]
		}`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	info, err := testZippopotam(srv.URL).Resolve(context.Background(), "90210")
	require.NoError(t, err)

	assert.Equal(t, "90210", info.Zip)
	assert.Equal(t, "Beverly Hills", info.City)
	assert.Equal(t, "CA", info.State)
	assert.Equal(t, "California", info.StateName)
	assert.Equal(t, 34.0901, info.Lat)
	assert.Equal(t, -118.4065, info.Lng)
}

func TestZippopotam_NotFoundStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testZippopotam(srv.URL).Resolve(context.Background(), "00000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestZippopotam_NoPlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"post code": "99999", "places": []}`))
	}))
	defer srv.Close()

	// An empty places array is the same user-facing failure as a non-2xx.
	_, err := testZippopotam(srv.URL).Resolve(context.Background(), "99999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStateAbbr(t *testing.T) {
	assert.Equal(t, "CA", StateAbbr("California"))
	assert.Equal(t, "NY", StateAbbr("New York"))
	assert.Equal(t, "TX", StateAbbr("TX"))
	assert.Equal(t, "Guam", StateAbbr("Guam"))
}
