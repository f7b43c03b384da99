package profile

import (
	"context"
	"sync"
)

// UserContext supplies a user's profile and interaction history to the
// scoring core.
type UserContext interface {
	// GetProfile returns the user's profile. Unknown users yield a
	// zero-valued profile with the given ID, not an error.
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)

	// GetInteractionHistory returns the user's most recent interactions,
	// newest first, up to limit. limit <= 0 means no limit.
	GetInteractionHistory(ctx context.Context, userID string, limit int) ([]Interaction, error)
}

// Recorder appends interactions and persists preference updates.
type Recorder interface {
	// AppendInteraction stores one validated interaction.
	AppendInteraction(ctx context.Context, interaction Interaction) error

	// AddPreferences unions new category tags into the user's preference
	// set. Existing preferences are never removed.
	AddPreferences(ctx context.Context, userID string, categories []string) error
}

// InMemoryStore is an in-memory implementation of UserContext and Recorder.
// Used for testing and development.
type InMemoryStore struct {
	mu           sync.RWMutex
	profiles     map[string]*UserProfile
	interactions map[string][]Interaction // userID -> interactions, oldest first
}

// NewInMemoryStore creates a new in-memory profile store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles:     make(map[string]*UserProfile),
		interactions: make(map[string][]Interaction),
	}
}

// PutProfile stores a profile, replacing any existing one.
func (s *InMemoryStore) PutProfile(p UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profileCopy := p
	profileCopy.Preferences = append([]string(nil), p.Preferences...)
	s.profiles[p.UserID] = &profileCopy
}

// GetProfile returns the user's profile. Unknown users yield a zero-valued
// profile with the given ID.
func (s *InMemoryStore) GetProfile(ctx context.Context, userID string) (*UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return &UserProfile{UserID: userID}, nil
	}
	profileCopy := *p
	profileCopy.Preferences = append([]string(nil), p.Preferences...)
	return &profileCopy, nil
}

// GetInteractionHistory returns the user's most recent interactions,
// newest first, up to limit.
func (s *InMemoryStore) GetInteractionHistory(ctx context.Context, userID string, limit int) ([]Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.interactions[userID]

	// Reverse so newest come first.
	result := make([]Interaction, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		result = append(result, history[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// AppendInteraction stores one validated interaction.
func (s *InMemoryStore) AppendInteraction(ctx context.Context, interaction Interaction) error {
	if err := interaction.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions[interaction.UserID] = append(s.interactions[interaction.UserID], interaction)
	return nil
}

// AddPreferences unions new category tags into the user's preference set.
func (s *InMemoryStore) AddPreferences(ctx context.Context, userID string, categories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = &UserProfile{UserID: userID}
		s.profiles[userID] = p
	}
	existing := make(map[string]bool, len(p.Preferences))
	for _, pref := range p.Preferences {
		existing[pref] = true
	}
	for _, c := range categories {
		if !existing[c] {
			p.Preferences = append(p.Preferences, c)
			existing[c] = true
		}
	}
	return nil
}
