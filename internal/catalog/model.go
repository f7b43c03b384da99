// Package catalog provides models and repositories for cultural events
// used as ranking candidates.
package catalog

import (
	"errors"
	"time"
)

// Point represents a geographic coordinate with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Category tags from the fixed cultural taxonomy.
const (
	CategoryMusique     = "musique"
	CategoryTheatre     = "theatre"
	CategoryDanse       = "danse"
	CategoryArt         = "art"
	CategoryCinema      = "cinema"
	CategoryPatrimoine  = "patrimoine"
	CategoryLitterature = "litterature"
	CategoryFestival    = "festival"
)

// SemanticGroups maps each group name to the category tags it contains.
// Categories in the same group are considered related when computing
// preference affinity: a user who likes theatre gets partial credit for
// danse and musique events.
var SemanticGroups = map[string][]string{
	"performing_arts":   {CategoryTheatre, CategoryDanse, CategoryMusique},
	"visual_arts":       {CategoryArt, CategoryCinema},
	"cultural_heritage": {CategoryPatrimoine, CategoryLitterature},
	"festivals":         {CategoryFestival},
}

// groupOf is the inverse of SemanticGroups, built once at init.
var groupOf = func() map[string]string {
	m := make(map[string]string)
	for group, categories := range SemanticGroups {
		for _, c := range categories {
			m[c] = group
		}
	}
	return m
}()

// GroupOf returns the semantic group a category belongs to.
// Returns the empty string for categories outside the taxonomy.
func GroupOf(category string) string {
	return groupOf[category]
}

// SameGroup reports whether two categories belong to the same semantic group.
// Categories outside the taxonomy never match.
func SameGroup(a, b string) bool {
	ga, gb := groupOf[a], groupOf[b]
	return ga != "" && ga == gb
}

// Validation errors for event ingestion.
var (
	ErrNegativePrice = errors.New("invalid price: must be non-negative")
	ErrMissingID     = errors.New("invalid event: id is required")
)

// ErrEventNotFound is returned by lookups for unknown event IDs.
var ErrEventNotFound = errors.New("event not found")

// Event represents a cultural event candidate for ranking.
// Events are immutable once scored; the corpus owns their lifecycle.
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Category string    `json:"category"`
	Price    *float64  `json:"price,omitempty"` // nil or 0 means free
	Venue    string    `json:"venue,omitempty"`
	City     string    `json:"city,omitempty"`
	Point    *Point    `json:"point,omitempty"`
	StartsAt time.Time `json:"starts_at"`
}

// IsFree reports whether the event is free to attend.
// A nil or zero price both mean free.
func (e *Event) IsFree() bool {
	return e.Price == nil || *e.Price <= 0
}

// PriceValue returns the event's price, or 0 when no price is recorded.
func (e *Event) PriceValue() float64 {
	if e.Price == nil {
		return 0
	}
	return *e.Price
}

// Validate checks the event fields at the ingestion boundary.
// Negative prices are rejected here so scoring never sees them.
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	if e.Price != nil && *e.Price < 0 {
		return ErrNegativePrice
	}
	return nil
}
