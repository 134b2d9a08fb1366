package safety

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safezip/zip-safety-lookup/internal/crime"
	"github.com/safezip/zip-safety-lookup/internal/events"
	"github.com/safezip/zip-safety-lookup/internal/geo"
	"github.com/safezip/zip-safety-lookup/internal/history"
	"github.com/safezip/zip-safety-lookup/internal/mapview"
	"github.com/safezip/zip-safety-lookup/internal/observability"
)

// Session owns the displayed result set, its markers, the search history,
// and the mode/sort state. It is the single place all of that mutates, so
// every change lands atomically: a result and its marker always appear or
// disappear together.
type Session struct {
	geocoder geo.Geocoder
	provider crime.Provider
	history  *history.Store
	widget   mapview.Widget
	events   events.Publisher
	metrics  *observability.Metrics

	mu      sync.Mutex
	mode    Mode
	sortBy  SortCriterion
	results []*Result
	pending map[string]int // zips with in-flight searches still wanted
	nextSeq uint64
}

// NewSession creates a session in single mode sorted by score descending.
func NewSession(
	geocoder geo.Geocoder,
	provider crime.Provider,
	hist *history.Store,
	widget mapview.Widget,
	publisher events.Publisher,
	metrics *observability.Metrics,
) *Session {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Session{
		geocoder: geocoder,
		provider: provider,
		history:  hist,
		widget:   widget,
		events:   publisher,
		metrics:  metrics,
		mode:     ModeSingle,
		sortBy:   SortScoreDesc,
		pending:  make(map[string]int),
	}
}

// Search runs the full pipeline for a zip: validate, geocode, fetch crime
// stats, score, then atomically insert or replace the result, place its
// marker, and record the zip in history. All-or-nothing: on any failure
// nothing is added and sibling results are untouched.
//
// If the session was cleared, switched modes, or had the zip removed
// while the lookup was in flight, the completed result is returned to the
// caller but the session is left alone.
func (s *Session) Search(ctx context.Context, zip string) (*Result, error) {
	zip = strings.TrimSpace(zip)
	if !ValidZip(zip) {
		s.metrics.Searches.WithLabelValues("invalid_zip").Inc()
		return nil, ErrInvalidZip
	}

	searchID := uuid.NewString()
	started := time.Now()

	s.mu.Lock()
	if s.mode == ModeSingle && s.containsLocked(zip) {
		s.mu.Unlock()
		s.metrics.Searches.WithLabelValues("duplicate").Inc()
		return nil, ErrDuplicateZip
	}
	s.pending[zip]++
	s.mu.Unlock()

	result, err := s.runPipeline(ctx, searchID, zip)
	if err != nil {
		s.abandon(zip)
		s.metrics.Searches.WithLabelValues(outcomeOf(err)).Inc()
		s.publish(searchID, zip, outcomeOf(err), nil)
		return nil, err
	}

	applied := s.apply(result)
	s.metrics.SearchDuration.Observe(time.Since(started).Seconds())

	if !applied {
		log.Printf("search %s: zip %s no longer wanted; dropping completed result", searchID, zip)
		s.metrics.Searches.WithLabelValues("superseded").Inc()
		return result, nil
	}

	if err := s.history.Record(zip); err != nil {
		log.Printf("search %s: history record failed for %s: %v", searchID, zip, err)
	}

	s.metrics.Searches.WithLabelValues("ok").Inc()
	s.publish(searchID, zip, "ok", &result.SafetyScore)
	return result, nil
}

// Lookup runs the pipeline without touching session state, history, or
// markers. It backs the stateless one-shot API endpoint.
func (s *Session) Lookup(ctx context.Context, zip string) (*Result, error) {
	zip = strings.TrimSpace(zip)
	if !ValidZip(zip) {
		return nil, ErrInvalidZip
	}
	return s.runPipeline(ctx, uuid.NewString(), zip)
}

// runPipeline does the two sequential network calls and the scoring.
// Geocoding must finish first: the provider needs the state abbreviation.
func (s *Session) runPipeline(ctx context.Context, searchID, zip string) (*Result, error) {
	info, err := s.geocoder.Resolve(ctx, zip)
	if err != nil {
		s.metrics.GeocodeRequests.WithLabelValues(geocodeOutcome(err)).Inc()
		log.Printf("search %s: geocode failed for %s: %v", searchID, zip, err)
		return nil, err
	}
	s.metrics.GeocodeRequests.WithLabelValues("success").Inc()

	stats, err := s.provider.FetchStats(ctx, zip, info.State)
	if err != nil {
		s.metrics.ProviderRequests.WithLabelValues(s.provider.Name(), providerOutcome(err)).Inc()
		log.Printf("search %s: provider %s failed for %s: %v", searchID, s.provider.Name(), zip, err)
		return nil, err
	}
	s.metrics.ProviderRequests.WithLabelValues(s.provider.Name(), "success").Inc()

	return newResult(info, stats), nil
}

// apply inserts or replaces the result under the session lock, provided
// the zip is still wanted. Returns false for superseded completions.
func (s *Session) apply(result *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending[result.Zip] == 0 {
		return false
	}
	s.decrementPendingLocked(result.Zip)

	s.nextSeq++
	result.seq = s.nextSeq

	if existing := s.indexOfLocked(result.Zip); existing >= 0 {
		// Refresh: replace in place; position may change on re-sort.
		s.results[existing] = result
	} else if s.mode == ModeSingle {
		// Single mode replaces the entire set and its markers.
		for _, old := range s.results {
			s.widget.Remove(old.Zip)
		}
		s.results = []*Result{result}
	} else {
		s.results = append(s.results, result)
	}

	s.widget.UpsertMarker(result.Zip, result.Geo.Lat, result.Geo.Lng, result.Tier, result.PopupText())
	s.sortLocked()
	s.updateGaugesLocked()
	return true
}

// Results returns the displayed results in their current sort order.
func (s *Session) Results() []*Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Result, len(s.results))
	copy(out, s.results)
	return out
}

// Mode returns the current display mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SortBy returns the current sort criterion.
func (s *Session) SortBy() SortCriterion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortBy
}

// SetMode switches display modes. Single->compare keeps the current
// entry. Compare->single keeps only the most recently added result and
// discards the rest together with their markers; in-flight searches for
// discarded zips are abandoned.
func (s *Session) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == s.mode {
		return
	}
	s.mode = mode

	if mode != ModeSingle || len(s.results) <= 1 {
		if mode == ModeSingle {
			s.cancelPendingExceptLocked(s.currentZipsLocked()...)
		}
		return
	}

	newest := s.results[0]
	for _, r := range s.results[1:] {
		if r.seq > newest.seq {
			newest = r
		}
	}
	for _, r := range s.results {
		if r != newest {
			s.widget.Remove(r.Zip)
		}
	}
	s.results = []*Result{newest}
	s.cancelPendingExceptLocked(newest.Zip)
	s.sortLocked()
	s.updateGaugesLocked()
}

// Remove discards one result and its marker. Compare mode only.
func (s *Session) Remove(zip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeCompare {
		return ErrNotInCompare
	}
	idx := s.indexOfLocked(zip)
	if idx < 0 {
		return ErrNoSuchResult
	}

	s.results = append(s.results[:idx], s.results[idx+1:]...)
	s.widget.Remove(zip)
	delete(s.pending, zip) // a late-arriving search must not re-insert it
	s.sortLocked()
	s.updateGaugesLocked()
	return nil
}

// Clear discards every result and marker. History is not touched.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = nil
	s.pending = make(map[string]int)
	s.widget.ClearAll()
	s.updateGaugesLocked()
}

// Sort sets the criterion and reorders the set. score_desc highlights
// exactly the top entry; the other criteria highlight nothing.
func (s *Session) Sort(criterion SortCriterion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sortBy = criterion
	s.sortLocked()
}

// Focus recenters the map on a displayed result's marker.
func (s *Session) Focus(zip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLocked(zip) < 0 {
		return ErrNoSuchResult
	}
	s.widget.Focus(zip)
	return nil
}

// RefreshAll re-runs the pipeline for every displayed zip, replacing each
// entry in place. Entries whose refresh fails keep their previous data.
func (s *Session) RefreshAll(ctx context.Context) {
	s.mu.Lock()
	zips := s.currentZipsLocked()
	for _, zip := range zips {
		s.pending[zip]++
	}
	s.mu.Unlock()

	for _, zip := range zips {
		searchID := uuid.NewString()
		result, err := s.runPipeline(ctx, searchID, zip)
		if err != nil {
			s.abandon(zip)
			log.Printf("refresh %s: keeping stale result for %s: %v", searchID, zip, err)
			continue
		}
		s.apply(result)
	}
}

func (s *Session) abandon(zip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decrementPendingLocked(zip)
}

func (s *Session) publish(searchID, zip, outcome string, score *int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.events.Publish(ctx, events.SearchEvent{
		SearchID:    searchID,
		Zip:         zip,
		Outcome:     outcome,
		SafetyScore: score,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		log.Printf("search %s: event publish failed: %v", searchID, err)
	}
}

func (s *Session) containsLocked(zip string) bool {
	return s.indexOfLocked(zip) >= 0
}

func (s *Session) indexOfLocked(zip string) int {
	for i, r := range s.results {
		if r.Zip == zip {
			return i
		}
	}
	return -1
}

func (s *Session) currentZipsLocked() []string {
	zips := make([]string, len(s.results))
	for i, r := range s.results {
		zips[i] = r.Zip
	}
	return zips
}

func (s *Session) decrementPendingLocked(zip string) {
	if s.pending[zip] <= 1 {
		delete(s.pending, zip)
		return
	}
	s.pending[zip]--
}

func (s *Session) cancelPendingExceptLocked(keep ...string) {
	kept := make(map[string]bool, len(keep))
	for _, zip := range keep {
		kept[zip] = true
	}
	for zip := range s.pending {
		if !kept[zip] {
			delete(s.pending, zip)
		}
	}
}

// sortLocked applies the current criterion. Stable, so equal keys keep
// their relative order.
func (s *Session) sortLocked() {
	switch s.sortBy {
	case SortScoreDesc:
		sort.SliceStable(s.results, func(i, j int) bool {
			return s.results[i].SafetyScore > s.results[j].SafetyScore
		})
	case SortScoreAsc:
		sort.SliceStable(s.results, func(i, j int) bool {
			return s.results[i].SafetyScore < s.results[j].SafetyScore
		})
	case SortZipAsc:
		sort.SliceStable(s.results, func(i, j int) bool {
			return s.results[i].Zip < s.results[j].Zip
		})
	}

	for _, r := range s.results {
		r.Highlighted = false
	}
	if s.sortBy == SortScoreDesc && len(s.results) > 0 {
		s.results[0].Highlighted = true
	}
}

func (s *Session) updateGaugesLocked() {
	s.metrics.ResultsDisplayed.Set(float64(len(s.results)))
	if counter, ok := s.widget.(interface{ Count() int }); ok {
		s.metrics.MarkersLive.Set(float64(counter.Count()))
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, geo.ErrNotFound):
		return "geocode_not_found"
	case errors.Is(err, crime.ErrUnavailable):
		return "provider_unavailable"
	case errors.Is(err, crime.ErrBadResponse):
		return "provider_bad_response"
	case errors.Is(err, crime.ErrRejected):
		return "provider_rejected"
	default:
		return "error"
	}
}

func geocodeOutcome(err error) string {
	if errors.Is(err, geo.ErrNotFound) {
		return "not_found"
	}
	return "error"
}

func providerOutcome(err error) string {
	switch {
	case errors.Is(err, crime.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, crime.ErrBadResponse):
		return "bad_response"
	case errors.Is(err, crime.ErrRejected):
		return "rejected"
	default:
		return "error"
	}
}
