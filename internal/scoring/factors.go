// Package scoring provides the per-factor scoring functions used to rank
// cultural events against a user's profile and behavior.
//
// Each scorer is a pure function mapping (event, user context) to a score
// in [0, 1]. Missing optional data is never an error: every scorer resolves
// it to a documented neutral default.
package scoring

import (
	"strings"
	"time"

	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/geo"
	"github.com/onnwee/culturank/internal/profile"
)

// Neutral defaults returned when optional profile data is missing.
const (
	NeutralPreference = 0.5 // user declared no preferences
	NeutralLocation   = 0.5 // user declared no location
	NeutralBudget     = 0.5 // user recorded no budget ceiling
)

// Factor names as fixed keys. These are the only valid weight vector keys.
const (
	FactorPreferenceMatch    = "preference_match"
	FactorLocationProximity  = "location_proximity"
	FactorPriceCompatibility = "price_compatibility"
	FactorTimePreference     = "time_preference"
	FactorSocialSignals      = "social_signals"
	FactorNoveltyFactor      = "novelty_factor"
)

// FactorNames lists the six factor names in canonical order.
var FactorNames = []string{
	FactorPreferenceMatch,
	FactorLocationProximity,
	FactorPriceCompatibility,
	FactorTimePreference,
	FactorSocialSignals,
	FactorNoveltyFactor,
}

// Factors holds the six factor scores computed for one event.
type Factors struct {
	PreferenceMatch    float64 `json:"preference_match"`
	LocationProximity  float64 `json:"location_proximity"`
	PriceCompatibility float64 `json:"price_compatibility"`
	TimePreference     float64 `json:"time_preference"`
	SocialSignals      float64 `json:"social_signals"`
	NoveltyFactor      float64 `json:"novelty_factor"`
}

// Compute evaluates all six factor scorers for one event.
// history is the user's interaction history (any order); stats are the
// event's aggregate interaction counts across all users.
func Compute(event *catalog.Event, user *profile.UserProfile, history []profile.Interaction, stats catalog.EventStats) Factors {
	return Factors{
		PreferenceMatch:    PreferenceMatch(event.Category, user.Preferences),
		LocationProximity:  LocationProximity(user.Location, user.Point, event.City, event.Point),
		PriceCompatibility: PriceCompatibility(event.Price, user.Budget),
		TimePreference:     TimePreference(event.StartsAt, history),
		SocialSignals:      SocialSignals(stats),
		NoveltyFactor:      NoveltyFactor(event.Category, history),
	}
}

// PreferenceMatch scores how well the event's category matches the user's
// declared preference tags.
//
//	exact tag match               -> 1.0
//	same semantic group as a tag  -> 0.7
//	no preferences declared       -> 0.5 (neutral, never penalizing)
//	unrelated category            -> 0.2 (floor)
func PreferenceMatch(category string, preferences []string) float64 {
	if len(preferences) == 0 {
		return NeutralPreference
	}
	for _, pref := range preferences {
		if pref == category {
			return 1.0
		}
	}
	for _, pref := range preferences {
		if catalog.SameGroup(pref, category) {
			return 0.7
		}
	}
	return 0.2
}

// LocationProximity scores geographic closeness between the user's declared
// location and the event's city.
//
// When both sides have coordinates, a haversine distance banding decides the
// score. Otherwise a case-insensitive substring relation between the city
// strings scores 1.0, a mismatch 0.3, and a missing user location 0.5.
func LocationProximity(userLocation string, userPoint *catalog.Point, eventCity string, eventPoint *catalog.Point) float64 {
	if userPoint != nil && eventPoint != nil {
		distance := geo.HaversineKm(userPoint.Lat, userPoint.Lng, eventPoint.Lat, eventPoint.Lng)
		return geo.ProximityScore(distance)
	}
	if userLocation == "" {
		return NeutralLocation
	}
	userLower := strings.ToLower(strings.TrimSpace(userLocation))
	cityLower := strings.ToLower(strings.TrimSpace(eventCity))
	if cityLower != "" && (strings.Contains(userLower, cityLower) || strings.Contains(cityLower, userLower)) {
		return 1.0
	}
	return 0.3
}

// PriceCompatibility scores the event's price against the user's budget
// ceiling.
//
//	free event (nil or 0 price)  -> 1.0
//	no budget recorded (<= 0)    -> 0.5
//	within budget                -> 0.6 + 0.4*(1 - price/budget)
//	over budget by <= 20%        -> 0.4
//	over budget by <= 50%        -> 0.2
//	over budget by more          -> 0.1
func PriceCompatibility(price *float64, budget float64) float64 {
	if price == nil || *price <= 0 {
		return 1.0
	}
	if budget <= 0 {
		return NeutralBudget
	}
	p := *price
	if p <= budget {
		return 0.6 + 0.4*(1-p/budget)
	}
	overage := (p - budget) / budget
	switch {
	case overage <= 0.2:
		return 0.4
	case overage <= 0.5:
		return 0.2
	default:
		return 0.1
	}
}

// TimePreference scores the event's start time, boosted by the user's own
// temporal habits.
//
// Base 0.5; +0.1 for a weekend start; +0.2 for an evening start (18-22h) or
// +0.1 for an afternoon start (14-17h). If more than half of the user's
// interactions happened on weekends and the event is on a weekend, +0.2;
// likewise +0.2 for an evening habit matching an evening event.
// The result is clamped to 1.0.
func TimePreference(startsAt time.Time, history []profile.Interaction) float64 {
	score := 0.5

	weekend := isWeekend(startsAt)
	if weekend {
		score += 0.1
	}

	hour := startsAt.Hour()
	evening := hour >= 18 && hour <= 22
	switch {
	case evening:
		score += 0.2
	case hour >= 14 && hour <= 17:
		score += 0.1
	}

	if len(history) > 0 {
		var weekendCount, eveningCount int
		for _, in := range history {
			if in.IsWeekend() {
				weekendCount++
			}
			if in.IsEvening() {
				eveningCount++
			}
		}
		half := len(history) / 2
		if weekend && weekendCount > half {
			score += 0.2
		}
		if evening && eveningCount > half {
			score += 0.2
		}
	}

	return clamp01(score)
}

// SocialSignals scores aggregate engagement on the event across all users.
//
// Base 0.5; +0.2 for more than 10 total interactions; +0.2 for more than
// 5 saves; +0.1 for an average explicit rating above 4. Clamped to 1.0.
func SocialSignals(stats catalog.EventStats) float64 {
	score := 0.5
	if stats.Interactions > 10 {
		score += 0.2
	}
	if stats.Saves > 5 {
		score += 0.2
	}
	if stats.AverageRating() > 4 {
		score += 0.1
	}
	return clamp01(score)
}

// NoveltyFactor scores inverse familiarity: categories the user has rarely
// engaged with score higher.
//
//	no prior interactions with the category  -> 0.8
//	1-3 prior interactions                   -> 0.6
//	more than 3                              -> 0.4
func NoveltyFactor(category string, history []profile.Interaction) float64 {
	var count int
	for _, in := range history {
		if in.Category == category {
			count++
		}
	}
	switch {
	case count == 0:
		return 0.8
	case count <= 3:
		return 0.6
	default:
		return 0.4
	}
}

// isWeekend reports whether t falls on a Saturday or Sunday.
func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
