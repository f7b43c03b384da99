package ranking

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultWeights_Normalized(t *testing.T) {
	w := DefaultWeights()
	if !w.IsNormalized() {
		t.Errorf("default weights must sum to 1.0, got %f", w.Sum())
	}
	if w.PreferenceMatch != 0.30 {
		t.Errorf("expected preference_match 0.30, got %f", w.PreferenceMatch)
	}
}

func TestNormalize(t *testing.T) {
	w := WeightVector{
		PreferenceMatch:    0.6,
		LocationProximity:  0.4,
		PriceCompatibility: 0.3,
		TimePreference:     0.3,
		SocialSignals:      0.2,
		NoveltyFactor:      0.2,
	}
	n := w.Normalize()
	if !n.IsNormalized() {
		t.Fatalf("normalized vector sums to %f", n.Sum())
	}
	// Proportions are preserved.
	if math.Abs(n.PreferenceMatch/n.LocationProximity-1.5) > 1e-9 {
		t.Errorf("normalization changed weight proportions")
	}
}

func TestNormalize_ZeroVectorFallsBackToDefaults(t *testing.T) {
	var zero WeightVector
	n := zero.Normalize()
	if n != DefaultWeights() {
		t.Errorf("zero vector should normalize to defaults, got %+v", n)
	}
}

func TestMap_CoversAllFactors(t *testing.T) {
	m := DefaultWeights().Map()
	if len(m) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(m))
	}
	var sum float64
	for _, v := range m {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("map values sum to %f", sum)
	}
}

func TestMergeCalibration_PartialOverride(t *testing.T) {
	base := DefaultWeights()
	override := WeightVector{PreferenceMatch: 0.5, SocialSignals: 0.05}

	merged := MergeCalibration(base, override)

	if merged.PreferenceMatch != 0.5 {
		t.Errorf("expected overridden preference_match 0.5, got %f", merged.PreferenceMatch)
	}
	if merged.SocialSignals != 0.05 {
		t.Errorf("expected overridden social_signals 0.05, got %f", merged.SocialSignals)
	}
	// Untouched weights keep base values.
	if merged.LocationProximity != base.LocationProximity {
		t.Errorf("expected base location_proximity, got %f", merged.LocationProximity)
	}
}

func TestLoadCalibration_EmptyPathUsesDefaults(t *testing.T) {
	w, err := LoadCalibration("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != DefaultWeights() {
		t.Errorf("expected defaults, got %+v", w)
	}
}

func TestLoadCalibration_MissingFileReturnsDefaultsAndError(t *testing.T) {
	w, err := LoadCalibration(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
	if w != DefaultWeights() {
		t.Errorf("expected defaults on error, got %+v", w)
	}
}

func TestLoadCalibration_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	content := `{
		"version": "1",
		"weights": {
			"preference_match": 0.5,
			"location_proximity": 0.5
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write calibration file: %v", err)
	}

	w, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.IsNormalized() {
		t.Errorf("loaded weights must be normalized, got sum %f", w.Sum())
	}
	// preference and location were both overridden to 0.5 before
	// normalization, so they end up equal.
	if math.Abs(w.PreferenceMatch-w.LocationProximity) > 1e-9 {
		t.Errorf("expected equal preference and location weights, got %f and %f",
			w.PreferenceMatch, w.LocationProximity)
	}
}

func TestLoadCalibration_InvalidJSONReturnsDefaultsAndError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	w, err := LoadCalibration(path)
	if err == nil {
		t.Error("expected an error for invalid JSON")
	}
	if w != DefaultWeights() {
		t.Errorf("expected defaults on parse error, got %+v", w)
	}
}
