package scoring

import "math"

// Level is the categorical crime level shown on a result card.
type Level string

const (
	LevelLow     Level = "Low"
	LevelMedium  Level = "Medium"
	LevelHigh    Level = "High"
	LevelUnknown Level = "Unknown"
)

// Icon returns the marker glyph for a level.
func (l Level) Icon() string {
	switch l {
	case LevelLow:
		return "🟢"
	case LevelMedium:
		return "🟡"
	case LevelHigh:
		return "🔴"
	default:
		return "⚪"
	}
}

// Kind selects the threshold table used when leveling a rate.
type Kind string

const (
	KindViolent  Kind = "violent"
	KindProperty Kind = "property"
)

// Tier is the presentation-facing grouping of a safety score.
type Tier string

const (
	TierSafe    Tier = "safe"
	TierCaution Tier = "caution"
	TierRisk    Tier = "risk"
)

// Color returns the fixed presentation color for a tier.
func (t Tier) Color() string {
	switch t {
	case TierSafe:
		return "#00b96b"
	case TierCaution:
		return "#f1c40f"
	default:
		return "#e74c3c"
	}
}

// Leveling thresholds and score normalization ceilings. These are a fixed
// policy choice; changing them changes every displayed level and score.
const (
	violentLowMax  = 250
	violentMedMax  = 450
	propertyLowMax = 1800
	propertyMedMax = 3200

	violentCeiling  = 700
	propertyCeiling = 5000

	violentWeight  = 0.6
	propertyWeight = 0.4
)

// LevelOf maps a raw per-100k rate to a categorical level. A nil or NaN
// rate means the figure is unknown, not zero.
func LevelOf(rate *float64, kind Kind) Level {
	if rate == nil || math.IsNaN(*rate) {
		return LevelUnknown
	}
	r := *rate
	if kind == KindViolent {
		switch {
		case r < violentLowMax:
			return LevelLow
		case r < violentMedMax:
			return LevelMedium
		default:
			return LevelHigh
		}
	}
	switch {
	case r < propertyLowMax:
		return LevelLow
	case r < propertyMedMax:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// ScoreOf converts violent/property rates into a 0-100 safety score,
// higher meaning safer. An unknown rate contributes a neutral 0.5 risk.
func ScoreOf(violentRate, propertyRate *float64) int {
	v := riskOf(violentRate, violentCeiling)
	p := riskOf(propertyRate, propertyCeiling)
	risk := v*violentWeight + p*propertyWeight
	score := int(math.Round(100 - risk*100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func riskOf(rate *float64, ceiling float64) float64 {
	if rate == nil || math.IsNaN(*rate) {
		return 0.5
	}
	return clamp(*rate/ceiling, 0, 1)
}

// TierOf buckets a safety score into its presentation tier.
func TierOf(score int) Tier {
	switch {
	case score >= 80:
		return TierSafe
	case score >= 60:
		return TierCaution
	default:
		return TierRisk
	}
}

func clamp(n, min, max float64) float64 {
	return math.Max(min, math.Min(max, n))
}
