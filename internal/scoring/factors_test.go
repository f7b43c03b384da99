package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/profile"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPreferenceMatch(t *testing.T) {
	tests := []struct {
		name        string
		category    string
		preferences []string
		want        float64
	}{
		{"exact_match", catalog.CategoryMusique, []string{catalog.CategoryMusique}, 1.0},
		{"exact_match_among_several", catalog.CategoryDanse, []string{catalog.CategoryArt, catalog.CategoryDanse}, 1.0},
		{"same_semantic_group", catalog.CategoryDanse, []string{catalog.CategoryTheatre}, 0.7},
		{"visual_arts_group", catalog.CategoryCinema, []string{catalog.CategoryArt}, 0.7},
		{"no_preferences_is_neutral", catalog.CategoryMusique, nil, 0.5},
		{"empty_preferences_is_neutral", catalog.CategoryMusique, []string{}, 0.5},
		{"unrelated_category_floor", catalog.CategoryPatrimoine, []string{catalog.CategoryMusique}, 0.2},
		{"unknown_category_never_groups", "inconnu", []string{catalog.CategoryMusique}, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreferenceMatch(tt.category, tt.preferences)
			if !almostEqual(got, tt.want) {
				t.Errorf("PreferenceMatch(%q, %v) = %f, want %f", tt.category, tt.preferences, got, tt.want)
			}
		})
	}
}

func TestPreferenceMatch_ExactBeatsGroup(t *testing.T) {
	// theatre prefers theatre exactly even though danse shares its group
	got := PreferenceMatch(catalog.CategoryTheatre, []string{catalog.CategoryDanse, catalog.CategoryTheatre})
	if got != 1.0 {
		t.Errorf("expected exact match 1.0, got %f", got)
	}
}

func TestLocationProximity_Strings(t *testing.T) {
	tests := []struct {
		name         string
		userLocation string
		eventCity    string
		want         float64
	}{
		{"same_city", "Paris", "Paris", 1.0},
		{"case_insensitive", "paris", "PARIS", 1.0},
		{"substring_relation", "Paris 11e", "Paris", 1.0},
		{"different_cities", "Lyon", "Marseille", 0.3},
		{"no_user_location_is_neutral", "", "Paris", 0.5},
		{"no_event_city", "Paris", "", 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocationProximity(tt.userLocation, nil, tt.eventCity, nil)
			if !almostEqual(got, tt.want) {
				t.Errorf("LocationProximity(%q, nil, %q, nil) = %f, want %f", tt.userLocation, tt.eventCity, got, tt.want)
			}
		})
	}
}

func TestLocationProximity_Coordinates(t *testing.T) {
	paris := &catalog.Point{Lat: 48.8566, Lng: 2.3522}
	montreuil := &catalog.Point{Lat: 48.8638, Lng: 2.4485} // ~7 km from central Paris
	lyon := &catalog.Point{Lat: 45.7640, Lng: 4.8357}      // ~390 km

	if got := LocationProximity("Paris", paris, "Paris", paris); got != 1.0 {
		t.Errorf("same point should score 1.0, got %f", got)
	}
	if got := LocationProximity("Paris", paris, "Montreuil", montreuil); got != 0.8 {
		t.Errorf("~7 km should land in the 0.8 band, got %f", got)
	}
	if got := LocationProximity("Paris", paris, "Lyon", lyon); got != 0.2 {
		t.Errorf("~390 km should land in the 0.2 band, got %f", got)
	}

	// Coordinates win over contradictory city strings.
	if got := LocationProximity("Paris", paris, "Paris", lyon); got != 0.2 {
		t.Errorf("coordinate distance should override matching city names, got %f", got)
	}
}

func TestPriceCompatibility(t *testing.T) {
	tests := []struct {
		name   string
		price  *float64
		budget float64
		want   float64
	}{
		{"nil_price_is_free", nil, 20, 1.0},
		{"zero_price_is_free", floatPtr(0), 20, 1.0},
		{"free_ignores_missing_budget", nil, 0, 1.0},
		{"no_budget_is_neutral", floatPtr(15), 0, 0.5},
		{"well_within_budget", floatPtr(5), 20, 0.6 + 0.4*(1-5.0/20.0)},
		{"at_budget", floatPtr(20), 20, 0.6},
		{"slightly_over", floatPtr(22), 20, 0.4},
		{"moderately_over", floatPtr(28), 20, 0.2},
		{"far_over", floatPtr(100), 20, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceCompatibility(tt.price, tt.budget)
			if !almostEqual(got, tt.want) {
				t.Errorf("PriceCompatibility = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTimePreference_NoHistory(t *testing.T) {
	// Reference dates with known weekdays.
	saturdayEvening := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)   // Saturday 20:00
	saturdayAfternoon := time.Date(2026, 9, 5, 15, 0, 0, 0, time.UTC) // Saturday 15:00
	tuesdayMorning := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)    // Tuesday 10:00
	tuesdayEvening := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)    // Tuesday 19:00

	tests := []struct {
		name     string
		startsAt time.Time
		want     float64
	}{
		{"weekend_evening", saturdayEvening, 0.8},
		{"weekend_afternoon", saturdayAfternoon, 0.7},
		{"weekday_morning", tuesdayMorning, 0.5},
		{"weekday_evening", tuesdayEvening, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimePreference(tt.startsAt, nil)
			if !almostEqual(got, tt.want) {
				t.Errorf("TimePreference(%v) = %f, want %f", tt.startsAt, got, tt.want)
			}
		})
	}
}

func TestTimePreference_HabitBoosts(t *testing.T) {
	saturdayEvening := time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC)

	// History dominated by weekend evening interactions.
	history := []profile.Interaction{
		{Type: profile.InteractionView, CreatedAt: time.Date(2026, 8, 29, 20, 0, 0, 0, time.UTC)}, // Sat evening
		{Type: profile.InteractionView, CreatedAt: time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC)}, // Sun evening
		{Type: profile.InteractionView, CreatedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)}, // Tue morning
	}

	// Base 0.5 + weekend 0.1 + evening 0.2 + weekend habit 0.2 + evening
	// habit 0.2 = 1.2, clamped to 1.0.
	got := TimePreference(saturdayEvening, history)
	if got != 1.0 {
		t.Errorf("expected clamp to 1.0 with matching habits, got %f", got)
	}

	// Weekday event gets no habit boost regardless of history.
	tuesday := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	got = TimePreference(tuesday, history)
	if !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5 for weekday morning, got %f", got)
	}
}

func TestSocialSignals(t *testing.T) {
	tests := []struct {
		name  string
		stats catalog.EventStats
		want  float64
	}{
		{"zero_stats", catalog.EventStats{}, 0.5},
		{"popular", catalog.EventStats{Interactions: 11}, 0.7},
		{"saved", catalog.EventStats{Saves: 6}, 0.7},
		{"well_rated", catalog.EventStats{RatingSum: 45, RatingCount: 10}, 0.6},
		{"boundary_rating_not_counted", catalog.EventStats{RatingSum: 40, RatingCount: 10}, 0.5},
		{"all_signals", catalog.EventStats{Interactions: 50, Saves: 20, RatingSum: 48, RatingCount: 10}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SocialSignals(tt.stats)
			if !almostEqual(got, tt.want) {
				t.Errorf("SocialSignals(%+v) = %f, want %f", tt.stats, got, tt.want)
			}
		})
	}
}

func TestNoveltyFactor(t *testing.T) {
	history := []profile.Interaction{
		{Category: catalog.CategoryMusique},
		{Category: catalog.CategoryMusique},
		{Category: catalog.CategoryMusique},
		{Category: catalog.CategoryMusique},
		{Category: catalog.CategoryTheatre},
	}

	tests := []struct {
		name     string
		category string
		want     float64
	}{
		{"never_seen", catalog.CategoryDanse, 0.8},
		{"lightly_engaged", catalog.CategoryTheatre, 0.6},
		{"heavily_engaged", catalog.CategoryMusique, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NoveltyFactor(tt.category, history)
			if !almostEqual(got, tt.want) {
				t.Errorf("NoveltyFactor(%q) = %f, want %f", tt.category, got, tt.want)
			}
		})
	}
}

func TestCompute_AllFactorsInRange(t *testing.T) {
	event := &catalog.Event{
		ID:       "ev-1",
		Category: catalog.CategoryMusique,
		Price:    floatPtr(15),
		City:     "Paris",
		StartsAt: time.Date(2026, 9, 5, 20, 0, 0, 0, time.UTC),
	}
	user := &profile.UserProfile{
		UserID:      "u1",
		Preferences: []string{catalog.CategoryMusique},
		Location:    "Paris",
		Budget:      20,
	}
	history := []profile.Interaction{
		{Type: profile.InteractionSave, Category: catalog.CategoryMusique, Rating: intPtr(5), CreatedAt: time.Date(2026, 8, 29, 20, 0, 0, 0, time.UTC)},
	}
	stats := catalog.EventStats{Interactions: 20, Saves: 8, RatingSum: 45, RatingCount: 10}

	f := Compute(event, user, history, stats)

	for name, v := range map[string]float64{
		"preference_match":    f.PreferenceMatch,
		"location_proximity":  f.LocationProximity,
		"price_compatibility": f.PriceCompatibility,
		"time_preference":     f.TimePreference,
		"social_signals":      f.SocialSignals,
		"novelty_factor":      f.NoveltyFactor,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %f out of [0,1]", name, v)
		}
	}

	if f.PreferenceMatch != 1.0 {
		t.Errorf("expected exact preference match, got %f", f.PreferenceMatch)
	}
	if f.LocationProximity != 1.0 {
		t.Errorf("expected same-city proximity, got %f", f.LocationProximity)
	}
}
