// Package trainer recalibrates the ranking weight vector from a trailing
// window of interaction outcomes across all users.
package trainer

import (
	"strings"

	"github.com/onnwee/culturank/internal/profile"
)

// Satisfaction is the coarse outcome bucket assigned to a past interaction
// for training-time analysis.
type Satisfaction int

const (
	// SatisfactionLow marks interactions with no positive signal.
	SatisfactionLow Satisfaction = iota
	// SatisfactionMedium marks lukewarm signals: a click or a rating of 3.
	SatisfactionMedium
	// SatisfactionHigh marks strong signals: a save, a share, or a rating
	// of 4 or more.
	SatisfactionHigh
)

// String returns the satisfaction level as a label.
func (s Satisfaction) String() string {
	switch s {
	case SatisfactionHigh:
		return "high"
	case SatisfactionMedium:
		return "medium"
	default:
		return "low"
	}
}

// Classify assigns a satisfaction level to one interaction.
func Classify(in profile.Interaction) Satisfaction {
	if in.Rating != nil && *in.Rating >= 4 {
		return SatisfactionHigh
	}
	if in.Type == profile.InteractionSave || in.Type == profile.InteractionShare {
		return SatisfactionHigh
	}
	if in.Rating != nil && *in.Rating == 3 {
		return SatisfactionMedium
	}
	if in.Type == profile.InteractionClick {
		return SatisfactionMedium
	}
	return SatisfactionLow
}

// Sample joins one interaction with the event and user-profile state it was
// recorded against. The trainer evaluates how well the current ranking
// factors predicted the outcome.
type Sample struct {
	Interaction  profile.Interaction
	Preferences  []string // user's declared preference tags
	UserLocation string   // user's declared home city
	UserBudget   float64  // user's budget ceiling, 0 when unset
	EventCity    string   // event city at interaction time
}

// categoryMatched reports whether the interaction's category was among the
// user's declared preferences.
func (s *Sample) categoryMatched() bool {
	for _, pref := range s.Preferences {
		if pref == s.Interaction.Category {
			return true
		}
	}
	return false
}

// locationMatched reports whether the user and event locations share a
// case-insensitive substring relation.
func (s *Sample) locationMatched() bool {
	if s.UserLocation == "" || s.EventCity == "" {
		return false
	}
	user := strings.ToLower(strings.TrimSpace(s.UserLocation))
	city := strings.ToLower(strings.TrimSpace(s.EventCity))
	return strings.Contains(user, city) || strings.Contains(city, user)
}

// priceMatched reports whether the event was free or within the user's
// budget. With no budget recorded, only free events count as a price match.
func (s *Sample) priceMatched() bool {
	if s.Interaction.Price == nil || *s.Interaction.Price <= 0 {
		return true
	}
	return s.UserBudget > 0 && *s.Interaction.Price <= s.UserBudget
}
