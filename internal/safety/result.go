package safety

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/safezip/zip-safety-lookup/internal/common"
	"github.com/safezip/zip-safety-lookup/internal/crime"
	"github.com/safezip/zip-safety-lookup/internal/geo"
	"github.com/safezip/zip-safety-lookup/internal/scoring"
)

// Mode selects how many results the session displays at once.
type Mode string

const (
	// ModeSingle shows at most one result; a new search replaces it.
	ModeSingle Mode = "single"

	// ModeCompare shows any number of results side by side.
	ModeCompare Mode = "compare"
)

// SortCriterion orders the displayed results.
type SortCriterion string

const (
	SortScoreDesc SortCriterion = "score_desc"
	SortScoreAsc  SortCriterion = "score_asc"
	SortZipAsc    SortCriterion = "zip_asc"
)

var (
	// ErrInvalidZip is a format failure caught before any I/O.
	ErrInvalidZip = errors.New("please enter a valid 5-digit ZIP code")

	// ErrDuplicateZip is the advisory single-mode re-search notice.
	ErrDuplicateZip = errors.New("ZIP code already displayed")

	// ErrNotInCompare is returned for removals outside compare mode.
	ErrNotInCompare = errors.New("removing results requires compare mode")

	// ErrNoSuchResult is returned when a zip is not currently displayed.
	ErrNoSuchResult = errors.New("no result for that ZIP")
)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// ValidZip reports whether zip satisfies the 5-digit invariant.
func ValidZip(zip string) bool {
	return zipPattern.MatchString(zip)
}

// Result is one scored lookup, the unit the result set manages.
type Result struct {
	Zip           string        `json:"zip"`
	Geo           geo.GeoInfo   `json:"geo"`
	Stats         crime.Stats   `json:"stats"`
	ViolentLevel  scoring.Level `json:"violentLevel"`
	PropertyLevel scoring.Level `json:"propertyLevel"`
	SafetyScore   int           `json:"safetyScore"`
	Tier          scoring.Tier  `json:"tier"`
	SafetyColor   string        `json:"safetyColor"`
	Highlighted   bool          `json:"highlighted"`

	// seq orders insertions so compare->single can keep the newest entry.
	seq uint64
}

// newResult derives the levels, score, and tier for a completed lookup.
func newResult(info geo.GeoInfo, stats crime.Stats) *Result {
	score := scoring.ScoreOf(stats.ViolentRate, stats.PropertyRate)
	tier := scoring.TierOf(score)

	return &Result{
		Zip:           info.Zip,
		Geo:           info,
		Stats:         stats,
		ViolentLevel:  scoring.LevelOf(stats.ViolentRate, scoring.KindViolent),
		PropertyLevel: scoring.LevelOf(stats.PropertyRate, scoring.KindProperty),
		SafetyScore:   score,
		Tier:          tier,
		SafetyColor:   tier.Color(),
	}
}

// CityLine renders the card heading, e.g. "Beverly Hills, CA (90210)".
func (r *Result) CityLine() string {
	return fmt.Sprintf("%s, %s (%s)", r.Geo.City, r.Geo.State, r.Zip)
}

// PopupText renders the marker popup body.
func (r *Result) PopupText() string {
	return fmt.Sprintf("%s\nSafety Score: %d/100\nViolent rate: %s /100k\nProperty rate: %s /100k",
		r.CityLine(),
		r.SafetyScore,
		common.FormatRate(r.Stats.ViolentRate),
		common.FormatRate(r.Stats.PropertyRate),
	)
}
