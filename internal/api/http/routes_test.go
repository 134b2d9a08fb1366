package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/safezip/zip-safety-lookup/internal/crime"
	"github.com/safezip/zip-safety-lookup/internal/geo"
	"github.com/safezip/zip-safety-lookup/internal/history"
	"github.com/safezip/zip-safety-lookup/internal/mapview"
	"github.com/safezip/zip-safety-lookup/internal/observability"
	"github.com/safezip/zip-safety-lookup/internal/safety"
)

type fakeGeocoder struct{ err error }

func (g fakeGeocoder) Resolve(_ context.Context, zip string) (geo.GeoInfo, error) {
	if g.err != nil {
		return geo.GeoInfo{}, g.err
	}
	return geo.GeoInfo{Zip: zip, City: "Testville", State: "NY", StateName: "New York", Lat: 40, Lng: -73}, nil
}

type fakeProvider struct{ err error }

func (p fakeProvider) Name() string { return "fake" }

func (p fakeProvider) FetchStats(context.Context, string, string) (crime.Stats, error) {
	if p.err != nil {
		return crime.Stats{}, p.err
	}
	violent := 120.0
	property := 950.0
	year := 2022
	return crime.Stats{ViolentRate: &violent, PropertyRate: &property, Year: &year}, nil
}

func newTestApp(t *testing.T, geocodeErr, providerErr error) *fiber.App {
	t.Helper()

	app := fiber.New()

	g := fakeGeocoder{err: geocodeErr}
	p := fakeProvider{err: providerErr}
	hist := history.NewStore(filepath.Join(t.TempDir(), "history.json"))
	markers := mapview.NewRegistry()
	session := safety.NewSession(g, p, hist, markers, nil, observability.NewMetricsForTesting())

	RegisterRoutes(app, Deps{
		Session:  session,
		History:  hist,
		Markers:  markers,
		Provider: p,
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

// TestZipValidation verifies the 5-digit invariant is enforced before any
// lookup work happens.
func TestZipValidation(t *testing.T) {
	app := newTestApp(t, nil, nil)

	for _, target := range []string{
		"/api/v1/safety",
		"/api/v1/safety?zip=1234",
		"/api/v1/safety?zip=123456",
		"/api/v1/safety?zip=abcde",
		"/api/v1/crime?zip=12a45",
	} {
		resp := doRequest(t, app, http.MethodGet, target)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected status %d for %s, got %d", http.StatusBadRequest, target, resp.StatusCode)
		}
	}
}

func TestSafetyLookup(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/safety?zip=10001")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var result safety.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Zip != "10001" {
		t.Fatalf("expected zip 10001, got %q", result.Zip)
	}
	if result.SafetyScore < 0 || result.SafetyScore > 100 {
		t.Fatalf("score out of range: %d", result.SafetyScore)
	}
}

func TestSafetyLookup_ZipNotFound(t *testing.T) {
	app := newTestApp(t, geo.ErrNotFound, nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/safety?zip=99999")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestSafetyLookup_ProviderDown(t *testing.T) {
	app := newTestApp(t, nil, crime.ErrUnavailable)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/safety?zip=10001")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
}

func TestSessionSearchAndResults(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/session/search?zip=10001")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	// Re-searching the same zip in single mode is a conflict.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/session/search?zip=10001")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}

	resp = doRequest(t, app, http.MethodGet, "/api/v1/session/results")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var payload struct {
		Mode    string          `json:"mode"`
		Count   int             `json:"count"`
		Results []safety.Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Mode != "single" || payload.Count != 1 {
		t.Fatalf("unexpected payload: mode=%q count=%d", payload.Mode, payload.Count)
	}
}

func TestSessionModeAndRemove(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/session/mode?mode=sideways")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	resp = doRequest(t, app, http.MethodPost, "/api/v1/session/mode?mode=compare")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	doRequest(t, app, http.MethodPost, "/api/v1/session/search?zip=10001")
	doRequest(t, app, http.MethodPost, "/api/v1/session/search?zip=90210")

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/session/results/90210")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}

	// Removing a zip that is not displayed is a 404.
	resp = doRequest(t, app, http.MethodDelete, "/api/v1/session/results/90210")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestSessionMarkersFeed(t *testing.T) {
	app := newTestApp(t, nil, nil)

	doRequest(t, app, http.MethodPost, "/api/v1/session/search?zip=10001")
	doRequest(t, app, http.MethodPost, "/api/v1/session/focus?zip=10001")

	resp := doRequest(t, app, http.MethodGet, "/api/v1/session/markers")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var payload struct {
		Markers []mapview.Marker `json:"markers"`
		Focused string           `json:"focused"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Markers) != 1 || payload.Focused != "10001" {
		t.Fatalf("unexpected markers payload: %+v", payload)
	}
	if payload.Markers[0].Color == "" {
		t.Fatal("marker color should be set from the score tier")
	}
}

func TestHistoryEndpoints(t *testing.T) {
	app := newTestApp(t, nil, nil)

	doRequest(t, app, http.MethodPost, "/api/v1/session/search?zip=10001")

	resp := doRequest(t, app, http.MethodGet, "/api/v1/history")
	var payload struct {
		History []string `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.History) != 1 || payload.History[0] != "10001" {
		t.Fatalf("unexpected history: %v", payload.History)
	}

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/history")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}

	resp = doRequest(t, app, http.MethodGet, "/api/v1/history")
	payload.History = nil
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.History) != 0 {
		t.Fatalf("expected empty history, got %v", payload.History)
	}
}

func TestPing(t *testing.T) {
	app := newTestApp(t, nil, nil)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/ping")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if resp.Header.Get("X-PAGES-FUNCTION") != "yes" {
		t.Fatal("missing X-PAGES-FUNCTION header")
	}
}
