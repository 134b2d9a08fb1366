package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rate(v float64) *float64 { return &v }

func TestLevelOf_ViolentThresholds(t *testing.T) {
	assert.Equal(t, LevelLow, LevelOf(rate(0), KindViolent))
	assert.Equal(t, LevelLow, LevelOf(rate(249.9), KindViolent))
	// 250 exactly enters Medium.
	assert.Equal(t, LevelMedium, LevelOf(rate(250), KindViolent))
	assert.Equal(t, LevelMedium, LevelOf(rate(449.9), KindViolent))
	assert.Equal(t, LevelHigh, LevelOf(rate(450), KindViolent))
	assert.Equal(t, LevelHigh, LevelOf(rate(2000), KindViolent))
}

func TestLevelOf_PropertyThresholds(t *testing.T) {
	assert.Equal(t, LevelLow, LevelOf(rate(1799), KindProperty))
	assert.Equal(t, LevelMedium, LevelOf(rate(1800), KindProperty))
	assert.Equal(t, LevelMedium, LevelOf(rate(3199), KindProperty))
	assert.Equal(t, LevelHigh, LevelOf(rate(3200), KindProperty))
}

func TestLevelOf_UnknownRates(t *testing.T) {
	assert.Equal(t, LevelUnknown, LevelOf(nil, KindViolent))
	assert.Equal(t, LevelUnknown, LevelOf(nil, KindProperty))
	nan := math.NaN()
	assert.Equal(t, LevelUnknown, LevelOf(&nan, KindViolent))
}

func TestScoreOf(t *testing.T) {
	// Both unknown: neutral 0.5 risk on each side.
	assert.Equal(t, 50, ScoreOf(nil, nil))

	// Zero crime is a perfect score.
	assert.Equal(t, 100, ScoreOf(rate(0), rate(0)))

	// Rates at the normalization ceilings bottom out at 0.
	assert.Equal(t, 0, ScoreOf(rate(700), rate(5000)))

	// Rates beyond the ceilings clamp rather than going negative.
	assert.Equal(t, 0, ScoreOf(rate(5000), rate(50000)))

	// Mixed known/unknown: violent risk 0, property neutral.
	// risk = 0*0.6 + 0.5*0.4 = 0.2 -> 80.
	assert.Equal(t, 80, ScoreOf(rate(0), nil))
}

func TestScoreOf_Rounding(t *testing.T) {
	// violent 350/700 = 0.5, property 2500/5000 = 0.5 -> risk 0.5 -> 50.
	assert.Equal(t, 50, ScoreOf(rate(350), rate(2500)))

	// violent 175/700 = 0.25, property 1250/5000 = 0.25 -> 75.
	assert.Equal(t, 75, ScoreOf(rate(175), rate(1250)))
}

func TestTierOf(t *testing.T) {
	assert.Equal(t, TierSafe, TierOf(100))
	assert.Equal(t, TierSafe, TierOf(80))
	assert.Equal(t, TierCaution, TierOf(79))
	assert.Equal(t, TierCaution, TierOf(60))
	assert.Equal(t, TierRisk, TierOf(59))
	assert.Equal(t, TierRisk, TierOf(0))
}

func TestTierColors(t *testing.T) {
	assert.Equal(t, "#00b96b", TierSafe.Color())
	assert.Equal(t, "#f1c40f", TierCaution.Color())
	assert.Equal(t, "#e74c3c", TierRisk.Color())
}

func TestLevelIcons(t *testing.T) {
	assert.Equal(t, "🟢", LevelLow.Icon())
	assert.Equal(t, "🟡", LevelMedium.Icon())
	assert.Equal(t, "🔴", LevelHigh.Icon())
	assert.Equal(t, "⚪", LevelUnknown.Icon())
}
