package profile

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/onnwee/culturank/internal/catalog"
)

func TestInMemoryStore_GetProfile(t *testing.T) {
	store := NewInMemoryStore()

	t.Run("unknown user yields zero profile", func(t *testing.T) {
		p, err := store.GetProfile(context.Background(), "ghost")
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if p.UserID != "ghost" || len(p.Preferences) != 0 || p.Location != "" || p.Budget != 0 {
			t.Errorf("expected zero profile, got %+v", p)
		}
	})

	t.Run("returns stored profile", func(t *testing.T) {
		store.PutProfile(UserProfile{
			UserID:      "u1",
			Preferences: []string{catalog.CategoryTheatre},
			Location:    "Lyon",
			Budget:      25,
		})
		p, err := store.GetProfile(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if p.Location != "Lyon" || p.Budget != 25 || !p.HasPreference(catalog.CategoryTheatre) {
			t.Errorf("unexpected profile: %+v", p)
		}
	})

	t.Run("returned profile is a copy", func(t *testing.T) {
		p, _ := store.GetProfile(context.Background(), "u1")
		p.Preferences = append(p.Preferences, catalog.CategoryCinema)
		p.Location = "Marseille"

		again, _ := store.GetProfile(context.Background(), "u1")
		if again.HasPreference(catalog.CategoryCinema) || again.Location != "Lyon" {
			t.Errorf("stored profile mutated through returned copy: %+v", again)
		}
	})
}

func TestInMemoryStore_InteractionHistory(t *testing.T) {
	store := NewInMemoryStore()
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := store.AppendInteraction(context.Background(), Interaction{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Type:      InteractionView,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("AppendInteraction: %v", err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		history, err := store.GetInteractionHistory(context.Background(), "u1", 0)
		if err != nil {
			t.Fatalf("GetInteractionHistory: %v", err)
		}
		if len(history) != 5 {
			t.Fatalf("expected 5 interactions, got %d", len(history))
		}
		ids := make([]string, len(history))
		for i, in := range history {
			ids[i] = in.ID
		}
		want := []string{"e", "d", "c", "b", "a"}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("ids = %v, want %v", ids, want)
		}
	})

	t.Run("limit keeps most recent", func(t *testing.T) {
		history, err := store.GetInteractionHistory(context.Background(), "u1", 2)
		if err != nil {
			t.Fatalf("GetInteractionHistory: %v", err)
		}
		if len(history) != 2 || history[0].ID != "e" || history[1].ID != "d" {
			t.Errorf("unexpected limited history: %+v", history)
		}
	})

	t.Run("unknown user yields empty history", func(t *testing.T) {
		history, err := store.GetInteractionHistory(context.Background(), "ghost", 0)
		if err != nil {
			t.Fatalf("GetInteractionHistory: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %d entries", len(history))
		}
	})

	t.Run("invalid interaction rejected", func(t *testing.T) {
		err := store.AppendInteraction(context.Background(), Interaction{UserID: "u1", Type: "teleport"})
		if err != ErrUnknownInteractionType {
			t.Errorf("expected ErrUnknownInteractionType, got %v", err)
		}
	})
}

func TestInMemoryStore_AddPreferences(t *testing.T) {
	t.Run("unions without duplicates", func(t *testing.T) {
		store := NewInMemoryStore()
		store.PutProfile(UserProfile{UserID: "u1", Preferences: []string{catalog.CategoryTheatre}})

		err := store.AddPreferences(context.Background(), "u1",
			[]string{catalog.CategoryTheatre, catalog.CategoryMusique})
		if err != nil {
			t.Fatalf("AddPreferences: %v", err)
		}

		p, _ := store.GetProfile(context.Background(), "u1")
		want := []string{catalog.CategoryTheatre, catalog.CategoryMusique}
		if !reflect.DeepEqual(p.Preferences, want) {
			t.Errorf("preferences = %v, want %v", p.Preferences, want)
		}
	})

	t.Run("creates profile for unknown user", func(t *testing.T) {
		store := NewInMemoryStore()
		err := store.AddPreferences(context.Background(), "new-user", []string{catalog.CategoryArt})
		if err != nil {
			t.Fatalf("AddPreferences: %v", err)
		}
		p, _ := store.GetProfile(context.Background(), "new-user")
		if !p.HasPreference(catalog.CategoryArt) {
			t.Errorf("expected preference persisted for new user, got %+v", p)
		}
	})
}
