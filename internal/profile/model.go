// Package profile provides models and repositories for user profiles and
// their interaction history.
package profile

import (
	"errors"
	"time"

	"github.com/onnwee/culturank/internal/catalog"
)

// Interaction types recorded against events.
const (
	InteractionView  = "view"
	InteractionClick = "click"
	InteractionSave  = "save"
	InteractionShare = "share"
	InteractionRate  = "rate"
)

// validInteractionTypes is a lookup set for interaction type validation.
var validInteractionTypes = map[string]bool{
	InteractionView:  true,
	InteractionClick: true,
	InteractionSave:  true,
	InteractionShare: true,
	InteractionRate:  true,
}

// ValidInteractionType reports whether t is a known interaction type.
func ValidInteractionType(t string) bool {
	return validInteractionTypes[t]
}

// Validation errors for the feedback boundary.
var (
	ErrUnknownInteractionType = errors.New("invalid interaction type: must be view, click, save, share, or rate")
	ErrInvalidRating          = errors.New("invalid rating: must be between 1 and 5")
	ErrMissingUserID          = errors.New("invalid interaction: user_id is required")
)

// UserProfile holds a user's declared preferences used for ranking.
// Budget 0 means no ceiling was recorded and is treated as neutral,
// not as zero tolerance.
type UserProfile struct {
	UserID      string         `json:"user_id"`
	Preferences []string       `json:"preferences,omitempty"` // category tags, order irrelevant
	Location    string         `json:"location,omitempty"`    // home city name
	Point       *catalog.Point `json:"point,omitempty"`
	Budget      float64        `json:"budget"`
}

// HasPreference reports whether the category is among the user's
// declared preference tags.
func (p *UserProfile) HasPreference(category string) bool {
	for _, pref := range p.Preferences {
		if pref == category {
			return true
		}
	}
	return false
}

// Interaction is one append-only record of user behavior on an event.
// Category, price, and venue are denormalized from the event at
// interaction time so history analysis survives event deletion.
type Interaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   *string   `json:"event_id,omitempty"` // nil for pure behavior-tracking entries
	Type      string    `json:"type"`
	Rating    *int      `json:"rating,omitempty"` // 1-5, only for explicit ratings
	Category  string    `json:"category,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	Venue     string    `json:"venue,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the interaction at the recording boundary.
// Out-of-range ratings and unknown types are rejected here so the
// scoring core never sees them.
func (i *Interaction) Validate() error {
	if i.UserID == "" {
		return ErrMissingUserID
	}
	if !ValidInteractionType(i.Type) {
		return ErrUnknownInteractionType
	}
	if i.Rating != nil && (*i.Rating < 1 || *i.Rating > 5) {
		return ErrInvalidRating
	}
	if i.Price != nil && *i.Price < 0 {
		return catalog.ErrNegativePrice
	}
	return nil
}

// IsWeekend reports whether the interaction happened on a Saturday or Sunday.
func (i *Interaction) IsWeekend() bool {
	wd := i.CreatedAt.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsEvening reports whether the interaction happened between 18:00 and 22:59.
func (i *Interaction) IsEvening() bool {
	h := i.CreatedAt.Hour()
	return h >= 18 && h <= 22
}
