// Package ranking combines per-factor scores into final event scores and
// produces ordered, explained recommendation lists.
package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/onnwee/culturank/internal/scoring"
)

// WeightVector holds the coefficient for each of the six scoring factors.
// Invariant: the weights are non-negative and sum to 1.0 (within floating
// point epsilon); Normalize restores the invariant after any adjustment.
type WeightVector struct {
	PreferenceMatch    float64 `json:"preference_match"`
	LocationProximity  float64 `json:"location_proximity"`
	PriceCompatibility float64 `json:"price_compatibility"`
	TimePreference     float64 `json:"time_preference"`
	SocialSignals      float64 `json:"social_signals"`
	NoveltyFactor      float64 `json:"novelty_factor"`
}

// WeightSumEpsilon is the tolerance used when checking the sum-to-one
// invariant.
const WeightSumEpsilon = 1e-9

// DefaultWeights returns the default weight vector used before any
// training run has produced one.
//
// Preference match dominates because declared taste is the strongest
// known signal; proximity and price follow; social proof and novelty are
// deliberately light so they nudge rather than drive.
func DefaultWeights() WeightVector {
	return WeightVector{
		PreferenceMatch:    0.30,
		LocationProximity:  0.20,
		PriceCompatibility: 0.15,
		TimePreference:     0.15,
		SocialSignals:      0.10,
		NoveltyFactor:      0.10,
	}
}

// Sum returns the total of all six weights.
func (w WeightVector) Sum() float64 {
	return w.PreferenceMatch + w.LocationProximity + w.PriceCompatibility +
		w.TimePreference + w.SocialSignals + w.NoveltyFactor
}

// Normalize returns a copy of the vector scaled so the weights sum to 1.0.
// A zero vector normalizes to the defaults rather than dividing by zero.
func (w WeightVector) Normalize() WeightVector {
	sum := w.Sum()
	if sum <= 0 {
		return DefaultWeights()
	}
	return WeightVector{
		PreferenceMatch:    w.PreferenceMatch / sum,
		LocationProximity:  w.LocationProximity / sum,
		PriceCompatibility: w.PriceCompatibility / sum,
		TimePreference:     w.TimePreference / sum,
		SocialSignals:      w.SocialSignals / sum,
		NoveltyFactor:      w.NoveltyFactor / sum,
	}
}

// IsNormalized reports whether the weights sum to 1.0 within epsilon.
func (w WeightVector) IsNormalized() bool {
	return math.Abs(w.Sum()-1.0) <= WeightSumEpsilon
}

// Map returns the vector as a factor-name keyed map. Useful for logging
// and reports.
func (w WeightVector) Map() map[string]float64 {
	return map[string]float64{
		scoring.FactorPreferenceMatch:    w.PreferenceMatch,
		scoring.FactorLocationProximity:  w.LocationProximity,
		scoring.FactorPriceCompatibility: w.PriceCompatibility,
		scoring.FactorTimePreference:     w.TimePreference,
		scoring.FactorSocialSignals:      w.SocialSignals,
		scoring.FactorNoveltyFactor:      w.NoveltyFactor,
	}
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string       `json:"version"` // Config version for future compatibility
	Weights WeightVector `json:"weights"` // Weight overrides
}

// LoadCalibration loads a weight vector from a JSON calibration file.
// Partial configurations are merged with defaults for graceful degradation,
// and the result is normalized. On any error, the defaults are returned
// alongside the error so callers can degrade gracefully.
func LoadCalibration(filePath string) (WeightVector, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged := MergeCalibration(DefaultWeights(), config.Weights).Normalize()
	logCalibrationOverrides(DefaultWeights(), merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only
// non-zero values from the override are applied, which allows partial
// overrides in the calibration file.
func MergeCalibration(base, override WeightVector) WeightVector {
	result := base
	if override.PreferenceMatch != 0 {
		result.PreferenceMatch = override.PreferenceMatch
	}
	if override.LocationProximity != 0 {
		result.LocationProximity = override.LocationProximity
	}
	if override.PriceCompatibility != 0 {
		result.PriceCompatibility = override.PriceCompatibility
	}
	if override.TimePreference != 0 {
		result.TimePreference = override.TimePreference
	}
	if override.SocialSignals != 0 {
		result.SocialSignals = override.SocialSignals
	}
	if override.NoveltyFactor != 0 {
		result.NoveltyFactor = override.NoveltyFactor
	}
	return result
}

// logCalibrationOverrides logs which weights differ from the defaults.
func logCalibrationOverrides(defaults, loaded WeightVector) {
	var overrides []string
	defaultMap := defaults.Map()
	for _, name := range scoring.FactorNames {
		if math.Abs(loaded.Map()[name]-defaultMap[name]) > WeightSumEpsilon {
			overrides = append(overrides, fmt.Sprintf("%s: %.3f -> %.3f", name, defaultMap[name], loaded.Map()[name]))
		}
	}
	if len(overrides) > 0 {
		slog.Info("loaded weight calibration with overrides", "overrides", overrides)
	} else {
		slog.Info("loaded weight calibration (using all defaults)")
	}
}
