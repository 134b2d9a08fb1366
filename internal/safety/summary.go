package safety

import (
	"math"

	"github.com/umahmood/haversine"
)

// Summary aggregates the displayed results for the compare-mode panel.
type Summary struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
	BestZip      string  `json:"bestZip,omitempty"`
	BestScore    int     `json:"bestScore"`
	WorstZip     string  `json:"worstZip,omitempty"`
	WorstScore   int     `json:"worstScore"`

	// SpreadMiles is the greatest distance between any two displayed
	// markers, so the panel can say how far apart the compared areas are.
	SpreadMiles float64 `json:"spreadMiles"`
}

// Summary computes the compare panel numbers from the current result set.
// An empty set yields a zero summary.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	results := make([]*Result, len(s.results))
	copy(results, s.results)
	s.mu.Unlock()

	if len(results) == 0 {
		return Summary{}
	}

	sum := 0
	best := results[0]
	worst := results[0]
	for _, r := range results {
		sum += r.SafetyScore
		if r.SafetyScore > best.SafetyScore {
			best = r
		}
		if r.SafetyScore < worst.SafetyScore {
			worst = r
		}
	}

	return Summary{
		Count:        len(results),
		AverageScore: math.Round(float64(sum)/float64(len(results))*10) / 10,
		BestZip:      best.Zip,
		BestScore:    best.SafetyScore,
		WorstZip:     worst.Zip,
		WorstScore:   worst.SafetyScore,
		SpreadMiles:  spreadMiles(results),
	}
}

// spreadMiles returns the maximum pairwise great-circle distance between
// result coordinates. The displayed set is small (a handful of compared
// zips), so the quadratic scan is fine.
func spreadMiles(results []*Result) float64 {
	var max float64
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			a := haversine.Coord{Lat: results[i].Geo.Lat, Lon: results[i].Geo.Lng}
			b := haversine.Coord{Lat: results[j].Geo.Lat, Lon: results[j].Geo.Lng}
			mi, _ := haversine.Distance(a, b)
			if mi > max {
				max = mi
			}
		}
	}
	return math.Round(max*10) / 10
}
