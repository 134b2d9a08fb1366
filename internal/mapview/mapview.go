package mapview

import (
	"sync"

	"github.com/safezip/zip-safety-lookup/internal/scoring"
)

// Widget is the capability the search pipeline needs from a map. The
// Leaflet layer in the frontend is one implementation; the in-process
// Registry below backs it over HTTP.
type Widget interface {
	// UpsertMarker places or replaces the marker for a zip. A zip has at
	// most one live marker; implementations retire the old one first.
	UpsertMarker(zip string, lat, lng float64, tier scoring.Tier, popup string)

	// Focus recenters on a zip's marker and opens its popup.
	Focus(zip string)

	// Remove retires the marker for a zip, if any.
	Remove(zip string)

	// ClearAll retires every marker.
	ClearAll()
}

// Marker is the state the frontend needs to draw one map pin.
type Marker struct {
	Zip   string  `json:"zip"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Tier  string  `json:"tier"`
	Color string  `json:"color"`
	Popup string  `json:"popup"`
}

// Registry is a concurrency-safe Widget that records marker state for
// the HTTP marker feed. Insertion order is preserved so the frontend
// paints deterministically.
type Registry struct {
	mu      sync.Mutex
	markers map[string]*Marker
	order   []string
	focused string
}

// NewRegistry creates an empty marker registry.
func NewRegistry() *Registry {
	return &Registry{
		markers: make(map[string]*Marker),
	}
}

func (r *Registry) UpsertMarker(zip string, lat, lng float64, tier scoring.Tier, popup string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := &Marker{
		Zip:   zip,
		Lat:   lat,
		Lng:   lng,
		Tier:  string(tier),
		Color: tier.Color(),
		Popup: popup,
	}

	if _, exists := r.markers[zip]; !exists {
		r.order = append(r.order, zip)
	}
	r.markers[zip] = m
}

func (r *Registry) Focus(zip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.markers[zip]; ok {
		r.focused = zip
	}
}

func (r *Registry) Remove(zip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.markers[zip]; !ok {
		return
	}
	delete(r.markers, zip)
	for i, z := range r.order {
		if z == zip {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.focused == zip {
		r.focused = ""
	}
}

func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.markers = make(map[string]*Marker)
	r.order = nil
	r.focused = ""
}

// Markers returns the live markers in insertion order.
func (r *Registry) Markers() []Marker {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Marker, 0, len(r.order))
	for _, zip := range r.order {
		out = append(out, *r.markers[zip])
	}
	return out
}

// Focused returns the currently focused zip, empty if none.
func (r *Registry) Focused() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focused
}

// Count returns the number of live markers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.markers)
}
