package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/onnwee/culturank/internal/catalog"
)

func ratingPtr(r int) *int { return &r }

func pricePtr(p float64) *float64 { return &p }

func TestValidInteractionType(t *testing.T) {
	for _, valid := range []string{InteractionView, InteractionClick, InteractionSave, InteractionShare, InteractionRate} {
		if !ValidInteractionType(valid) {
			t.Errorf("expected %q to be valid", valid)
		}
	}
	for _, invalid := range []string{"", "like", "VIEW", "teleport"} {
		if ValidInteractionType(invalid) {
			t.Errorf("expected %q to be invalid", invalid)
		}
	}
}

func TestInteractionValidate(t *testing.T) {
	tests := []struct {
		name        string
		interaction Interaction
		wantErr     error
	}{
		{
			name:        "valid implicit",
			interaction: Interaction{UserID: "u1", Type: InteractionView},
			wantErr:     nil,
		},
		{
			name:        "valid rating",
			interaction: Interaction{UserID: "u1", Type: InteractionRate, Rating: ratingPtr(5)},
			wantErr:     nil,
		},
		{
			name:        "missing user id",
			interaction: Interaction{Type: InteractionView},
			wantErr:     ErrMissingUserID,
		},
		{
			name:        "unknown type",
			interaction: Interaction{UserID: "u1", Type: "teleport"},
			wantErr:     ErrUnknownInteractionType,
		},
		{
			name:        "rating too low",
			interaction: Interaction{UserID: "u1", Type: InteractionRate, Rating: ratingPtr(0)},
			wantErr:     ErrInvalidRating,
		},
		{
			name:        "rating too high",
			interaction: Interaction{UserID: "u1", Type: InteractionRate, Rating: ratingPtr(6)},
			wantErr:     ErrInvalidRating,
		},
		{
			name:        "negative price",
			interaction: Interaction{UserID: "u1", Type: InteractionSave, Price: pricePtr(-2)},
			wantErr:     catalog.ErrNegativePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.interaction.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHasPreference(t *testing.T) {
	p := UserProfile{UserID: "u1", Preferences: []string{catalog.CategoryTheatre, catalog.CategoryMusique}}
	if !p.HasPreference(catalog.CategoryTheatre) {
		t.Error("expected theatre preference")
	}
	if p.HasPreference(catalog.CategoryCinema) {
		t.Error("did not expect cinema preference")
	}
	empty := UserProfile{UserID: "u2"}
	if empty.HasPreference(catalog.CategoryTheatre) {
		t.Error("empty profile should have no preferences")
	}
}

func TestInteractionIsWeekend(t *testing.T) {
	tests := []struct {
		day  time.Time
		want bool
	}{
		{time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC), false}, // Friday
		{time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC), true},  // Saturday
		{time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC), true},  // Sunday
		{time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC), false}, // Monday
	}
	for _, tt := range tests {
		in := Interaction{CreatedAt: tt.day}
		if got := in.IsWeekend(); got != tt.want {
			t.Errorf("IsWeekend(%s) = %v, want %v", tt.day.Weekday(), got, tt.want)
		}
	}
}

func TestInteractionIsEvening(t *testing.T) {
	tests := []struct {
		hour int
		want bool
	}{
		{17, false},
		{18, true},
		{20, true},
		{22, true},
		{23, false},
		{0, false},
	}
	for _, tt := range tests {
		in := Interaction{CreatedAt: time.Date(2026, 9, 1, tt.hour, 30, 0, 0, time.UTC)}
		if got := in.IsEvening(); got != tt.want {
			t.Errorf("IsEvening at %02d:30 = %v, want %v", tt.hour, got, tt.want)
		}
	}
}
