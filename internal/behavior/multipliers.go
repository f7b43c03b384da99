// Package behavior derives per-user feedback signals from interaction
// history: score multipliers for ranking and preference updates.
package behavior

import (
	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/profile"
)

// Price range buckets. Bucketing is fixed so that price affinity survives
// small price differences between events.
const (
	PriceBucketFree    = "free"    // exactly 0 (or no price)
	PriceBucketLow     = "low"     // <= 10
	PriceBucketMedium  = "medium"  // <= 25
	PriceBucketHigh    = "high"    // <= 50
	PriceBucketPremium = "premium" // > 50
)

// Multiplier bounds per feedback dimension. The ranges are heuristic
// constants tuned on observed outcomes, not principled priors; category
// affinity is allowed the widest swing, venue the narrowest.
const (
	CategoryLowerBound = 0.7
	CategoryUpperBound = 1.3

	PriceRangeLowerBound = 0.8
	PriceRangeUpperBound = 1.2

	VenueLowerBound = 0.9
	VenueUpperBound = 1.1
)

// implicitScores maps implicit interaction types to feedback scores in [-1, 1].
var implicitScores = map[string]float64{
	profile.InteractionSave:  0.5,
	profile.InteractionShare: 0.7,
	profile.InteractionClick: 0.2,
	profile.InteractionView:  0.1,
}

// Multipliers holds the three behavioral feedback multipliers applied to a
// raw weighted score. Each defaults to 1.0 when the user has no history for
// that dimension.
type Multipliers struct {
	Category   float64 `json:"category"`
	PriceRange float64 `json:"price_range"`
	Venue      float64 `json:"venue"`
}

// Neutral returns the identity multipliers.
func Neutral() Multipliers {
	return Multipliers{Category: 1.0, PriceRange: 1.0, Venue: 1.0}
}

// PriceBucket returns the fixed price-range bucket for a price value.
func PriceBucket(price float64) string {
	switch {
	case price <= 0:
		return PriceBucketFree
	case price <= 10:
		return PriceBucketLow
	case price <= 25:
		return PriceBucketMedium
	case price <= 50:
		return PriceBucketHigh
	default:
		return PriceBucketPremium
	}
}

// priceOf returns the denormalized interaction price, treating nil as free.
func priceOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// feedbackScore averages the feedback contributions of the given
// interactions into [-1, 1]. Explicit ratings map via (rating-3)/2;
// implicit types use fixed scores. Returns ok=false when no interaction
// contributed a signal.
func feedbackScore(interactions []profile.Interaction) (score float64, ok bool) {
	var sum float64
	var count int
	for _, in := range interactions {
		if in.Rating != nil {
			sum += (float64(*in.Rating) - 3) / 2
			count++
			continue
		}
		if s, known := implicitScores[in.Type]; known {
			sum += s
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// toMultiplier maps a feedback score in [-1, 1] onto [lower, upper].
func toMultiplier(feedback, lower, upper float64) float64 {
	return lower + (feedback+1)/2*(upper-lower)
}

// CategoryMultiplier derives the category-affinity multiplier for an event
// from the user's history. Returns 1.0 when the user has no interactions
// with the event's category.
func CategoryMultiplier(history []profile.Interaction, category string) float64 {
	var matching []profile.Interaction
	for _, in := range history {
		if in.Category != "" && in.Category == category {
			matching = append(matching, in)
		}
	}
	feedback, ok := feedbackScore(matching)
	if !ok {
		return 1.0
	}
	return toMultiplier(feedback, CategoryLowerBound, CategoryUpperBound)
}

// PriceRangeMultiplier derives the price-range-affinity multiplier for an
// event from the user's history. Returns 1.0 when the user has no
// interactions in the event's price bucket.
func PriceRangeMultiplier(history []profile.Interaction, price *float64) float64 {
	bucket := PriceBucket(priceOf(price))
	var matching []profile.Interaction
	for _, in := range history {
		if PriceBucket(priceOf(in.Price)) == bucket {
			matching = append(matching, in)
		}
	}
	feedback, ok := feedbackScore(matching)
	if !ok {
		return 1.0
	}
	return toMultiplier(feedback, PriceRangeLowerBound, PriceRangeUpperBound)
}

// VenueMultiplier derives the venue-affinity multiplier for an event from
// the user's history. Returns 1.0 when the user has no interactions at the
// event's venue.
func VenueMultiplier(history []profile.Interaction, venue string) float64 {
	if venue == "" {
		return 1.0
	}
	var matching []profile.Interaction
	for _, in := range history {
		if in.Venue == venue {
			matching = append(matching, in)
		}
	}
	feedback, ok := feedbackScore(matching)
	if !ok {
		return 1.0
	}
	return toMultiplier(feedback, VenueLowerBound, VenueUpperBound)
}

// Compute derives all three multipliers for one event. Dimensions without
// history resolve to the neutral 1.0, so callers always multiply by all
// three.
func Compute(history []profile.Interaction, event *catalog.Event) Multipliers {
	return Multipliers{
		Category:   CategoryMultiplier(history, event.Category),
		PriceRange: PriceRangeMultiplier(history, event.Price),
		Venue:      VenueMultiplier(history, event.Venue),
	}
}
