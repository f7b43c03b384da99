package ranking

import (
	"time"

	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/scoring"
)

// User-facing match reasons. The product surface is French.
const (
	ReasonPreference   = "Correspond à vos goûts culturels"
	ReasonNearby       = "Proche de chez vous"
	ReasonFree         = "Événement gratuit"
	ReasonWithinBudget = "Dans votre budget"
	ReasonWeekend      = "Le week-end"
	ReasonStrongMatch  = "Recommandation forte"
)

// StrongMatchThreshold is the final score above which the generic strong
// match reason is added.
const StrongMatchThreshold = 80.0

// Reasons derives the human-readable justification list for a scored event.
// It is computed from the same factor scores that produced the final score,
// never from re-derived conditions, so the explanation can't disagree with
// the ranking.
func Reasons(f scoring.Factors, event *catalog.Event, score float64) []string {
	var reasons []string

	if f.PreferenceMatch >= 0.7 {
		reasons = append(reasons, ReasonPreference)
	}
	if f.LocationProximity >= 0.8 {
		reasons = append(reasons, ReasonNearby)
	}
	if event.IsFree() {
		reasons = append(reasons, ReasonFree)
	} else if f.PriceCompatibility >= 0.6 {
		reasons = append(reasons, ReasonWithinBudget)
	}
	if wd := event.StartsAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
		reasons = append(reasons, ReasonWeekend)
	}
	if score > StrongMatchThreshold {
		reasons = append(reasons, ReasonStrongMatch)
	}

	return reasons
}
