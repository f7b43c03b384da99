package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// EventCorpus supplies candidate events for ranking.
// Implementations must return only active upcoming events.
type EventCorpus interface {
	// ListActiveUpcoming returns events starting at or after now,
	// excluding any IDs in excludeIDs.
	ListActiveUpcoming(ctx context.Context, excludeIDs []string) ([]Event, error)
}

// StatsSource supplies aggregate interaction counts per event across all
// users. These feed the social-signal component of scoring.
type StatsSource interface {
	// GetEventStats returns the aggregate stats for an event.
	// Unknown events yield zero-valued stats, not an error.
	GetEventStats(ctx context.Context, eventID string) (EventStats, error)
}

// EventStats holds aggregate interaction counts for one event.
type EventStats struct {
	Interactions int     `json:"interactions"` // total interactions of any type
	Saves        int     `json:"saves"`        // save interactions
	RatingSum    float64 `json:"rating_sum"`   // sum of explicit ratings
	RatingCount  int     `json:"rating_count"` // number of explicit ratings
}

// AverageRating returns the mean explicit rating, or 0 when none exist.
func (s EventStats) AverageRating() float64 {
	if s.RatingCount == 0 {
		return 0
	}
	return s.RatingSum / float64(s.RatingCount)
}

// InMemoryCorpus is an in-memory implementation of EventCorpus and
// StatsSource. Used for testing and development.
type InMemoryCorpus struct {
	mu     sync.RWMutex
	events map[string]*Event
	order  []string // insertion order, kept for deterministic listings
	stats  map[string]EventStats
	now    func() time.Time
}

// NewInMemoryCorpus creates a new in-memory event corpus.
func NewInMemoryCorpus() *InMemoryCorpus {
	return &InMemoryCorpus{
		events: make(map[string]*Event),
		stats:  make(map[string]EventStats),
		now:    time.Now,
	}
}

// SetClock overrides the time source. Used in tests to pin "now".
func (c *InMemoryCorpus) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Add validates and stores an event.
func (c *InMemoryCorpus) Add(event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.events[event.ID]; !exists {
		c.order = append(c.order, event.ID)
	}
	eventCopy := event
	c.events[event.ID] = &eventCopy
	return nil
}

// ListActiveUpcoming returns events starting at or after now in insertion
// order, excluding any IDs in excludeIDs.
func (c *InMemoryCorpus) ListActiveUpcoming(ctx context.Context, excludeIDs []string) ([]Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	now := c.now()
	result := make([]Event, 0, len(c.order))
	for _, id := range c.order {
		if excluded[id] {
			continue
		}
		ev := c.events[id]
		if ev.StartsAt.Before(now) {
			continue
		}
		result = append(result, *ev)
	}
	return result, nil
}

// GetEventStats returns the aggregate stats for an event.
func (c *InMemoryCorpus) GetEventStats(ctx context.Context, eventID string) (EventStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats[eventID], nil
}

// RecordInteraction updates the aggregate stats for an event.
// rating is nil for implicit interactions.
func (c *InMemoryCorpus) RecordInteraction(eventID, interactionType string, rating *int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats[eventID]
	s.Interactions++
	if interactionType == "save" {
		s.Saves++
	}
	if rating != nil {
		s.RatingSum += float64(*rating)
		s.RatingCount++
	}
	c.stats[eventID] = s
}

// Categories returns the distinct categories present in the corpus, sorted.
func (c *InMemoryCorpus) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool)
	for _, ev := range c.events {
		seen[ev.Category] = true
	}
	result := make([]string, 0, len(seen))
	for cat := range seen {
		result = append(result, cat)
	}
	sort.Strings(result)
	return result
}
