package ranking

import (
	"github.com/onnwee/culturank/internal/behavior"
	"github.com/onnwee/culturank/internal/scoring"
)

// MaxScore is the upper bound of final event scores.
const MaxScore = 100.0

// RawScore computes the weighted sum of the six factor scores.
// With a normalized weight vector the result lies in [0, 1].
func RawScore(f scoring.Factors, w WeightVector) float64 {
	return f.PreferenceMatch*w.PreferenceMatch +
		f.LocationProximity*w.LocationProximity +
		f.PriceCompatibility*w.PriceCompatibility +
		f.TimePreference*w.TimePreference +
		f.SocialSignals*w.SocialSignals +
		f.NoveltyFactor*w.NoveltyFactor
}

// FinalScore applies the behavioral multipliers to the raw weighted sum
// and scales to [0, 100]. Each multiplier is always applied; dimensions
// without history carry the neutral 1.0.
//
// The function is pure: identical inputs always produce the identical
// score, which keeps ranking deterministic and testable.
func FinalScore(f scoring.Factors, w WeightVector, m behavior.Multipliers) float64 {
	raw := RawScore(f, w)
	raw *= m.Category
	raw *= m.PriceRange
	raw *= m.Venue

	score := raw * MaxScore
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
