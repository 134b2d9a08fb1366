package providers

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/safezip/zip-safety-lookup/internal/crime"
)

const mockYear = 2022

// Mock is a deterministic crime data provider. Rates are a pure function
// of (zip, state), so the same search always produces the same card in
// demos and reproducible tests. An optional fixed latency
// imitates a real network round trip.
type Mock struct {
	clock   clockwork.Clock
	latency time.Duration
}

// NewMock creates a mock provider with a simulated network delay.
func NewMock(clock clockwork.Clock, latency time.Duration) *Mock {
	return &Mock{clock: clock, latency: latency}
}

func (m *Mock) Name() string {
	return "mock"
}

func (m *Mock) FetchStats(ctx context.Context, zip, stateAbbr string) (crime.Stats, error) {
	if m.latency > 0 {
		timer := m.clock.NewTimer(m.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return crime.Stats{}, ctx.Err()
		case <-timer.Chan():
		}
	}

	seed := hashSeed(zip + "-" + stateAbbr)

	violent := clampRate(float64(50+seed%900), 50, 900)
	property := clampRate(float64(600+(seed>>3)%5200), 600, 5500)
	year := mockYear

	return crime.Stats{
		ViolentRate:  &violent,
		PropertyRate: &property,
		Year:         &year,
	}, nil
}

// hashSeed is a 31-multiplier string hash with uint32 wraparound.
func hashSeed(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}

func clampRate(n, min, max float64) float64 {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
