package trainer

import (
	"github.com/onnwee/culturank/internal/ranking"
)

// AdjustmentStep is the bounded per-run change applied to a weight.
const AdjustmentStep = 0.05

// Per-factor bounds for trained weights, before renormalization.
const (
	PreferenceMatchCap    = 0.5
	PreferenceMatchFloor  = 0.2
	LocationProximityCap  = 0.35
	PriceCompatibilityCap = 0.25
)

// Thresholds on the performance ratios that trigger an adjustment.
const (
	CategoryIncreaseThreshold = 0.7
	CategoryDecreaseThreshold = 0.3
	LocationIncreaseThreshold = 0.6
	PriceIncreaseThreshold    = 0.8
)

// Performance holds the three ratios computed over the high-satisfaction
// subset of a training window.
type Performance struct {
	Category float64 `json:"category"` // fraction matching declared preferences
	Location float64 `json:"location"` // fraction with a user/event location match
	Price    float64 `json:"price"`    // fraction free or within budget
}

// Adjust applies the bounded weight adjustments for one training run.
// Only the three factors with performance signals move; the others are
// left untouched. The caller renormalizes afterwards.
func Adjust(w ranking.WeightVector, perf Performance) ranking.WeightVector {
	if perf.Category > CategoryIncreaseThreshold {
		w.PreferenceMatch = min(w.PreferenceMatch+AdjustmentStep, PreferenceMatchCap)
	} else if perf.Category < CategoryDecreaseThreshold {
		w.PreferenceMatch = max(w.PreferenceMatch-AdjustmentStep, PreferenceMatchFloor)
	}

	if perf.Location > LocationIncreaseThreshold {
		w.LocationProximity = min(w.LocationProximity+AdjustmentStep, LocationProximityCap)
	}

	if perf.Price > PriceIncreaseThreshold {
		w.PriceCompatibility = min(w.PriceCompatibility+AdjustmentStep, PriceCompatibilityCap)
	}

	return w
}
