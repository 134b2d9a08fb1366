package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safezip/zip-safety-lookup/internal/crime"
)

func newTestProxy(baseURL string) *Proxy {
	return NewProxy(&http.Client{Timeout: 5 * time.Second}, baseURL)
}

func TestProxy_FetchStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10001", r.URL.Query().Get("zip"))
		assert.Equal(t, "NY", r.URL.Query().Get("state"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{"violentRate": 320.5, "propertyRate": 2100, "year": 2022}`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	stats, err := newTestProxy(srv.URL).FetchStats(context.Background(), "10001", "NY")
	require.NoError(t, err)

	require.NotNil(t, stats.ViolentRate)
	assert.Equal(t, 320.5, *stats.ViolentRate)
	require.NotNil(t, stats.PropertyRate)
	assert.Equal(t, 2100.0, *stats.PropertyRate)
	require.NotNil(t, stats.Year)
	assert.Equal(t, 2022, *stats.Year)
}

func TestProxy_MissingRatesStayNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"propertyRate": 1500, "year": 2022}`))
	}))
	defer srv.Close()

	stats, err := newTestProxy(srv.URL).FetchStats(context.Background(), "10001", "NY")
	require.NoError(t, err)

	assert.Nil(t, stats.ViolentRate)
	require.NotNil(t, stats.PropertyRate)
	assert.Equal(t, 1500.0, *stats.PropertyRate)
}

func TestProxy_NonJSONContentType(t *testing.T) {
	// An SPA fallback page answering instead of the API is a routing
	// failure, not a data failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not the api</html>"))
	}))
	defer srv.Close()

	_, err := newTestProxy(srv.URL).FetchStats(context.Background(), "10001", "NY")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crime.ErrBadResponse))
}

func TestProxy_ErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "zip is required"}`))
	}))
	defer srv.Close()

	_, err := newTestProxy(srv.URL).FetchStats(context.Background(), "10001", "NY")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crime.ErrRejected))
	assert.Contains(t, err.Error(), "zip is required")
}

func TestProxy_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	p := NewProxy(&http.Client{Timeout: time.Second}, srv.URL)
	p.httpCfg.Backoff.MaxRetries = 0

	_, err := p.FetchStats(context.Background(), "10001", "NY")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crime.ErrUnavailable))
}

func TestDirect_RequiresKey(t *testing.T) {
	d := NewDirect(&http.Client{Timeout: time.Second}, "http://127.0.0.1:0", "")

	_, err := d.FetchStats(context.Background(), "10001", "NY")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crime.ErrUnavailable))
}

func TestDirect_SendsCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"violentRate": 100, "propertyRate": 900, "year": 2023}`))
	}))
	defer srv.Close()

	d := NewDirect(&http.Client{Timeout: 5 * time.Second}, srv.URL, "secret-key")
	stats, err := d.FetchStats(context.Background(), "10001", "NY")
	require.NoError(t, err)
	require.NotNil(t, stats.ViolentRate)
	assert.Equal(t, 100.0, *stats.ViolentRate)
}
