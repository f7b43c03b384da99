package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/middleware"
)

// EventSource reads single events and their aggregate engagement stats.
type EventSource interface {
	GetEvent(ctx context.Context, eventID string) (*catalog.Event, error)
	GetEventStats(ctx context.Context, eventID string) (catalog.EventStats, error)
}

// EventResponse is the response body for the event detail endpoint.
type EventResponse struct {
	EventID  string             `json:"event_id"`
	Title    string             `json:"title,omitempty"`
	Category string             `json:"category"`
	City     string             `json:"city,omitempty"`
	Venue    string             `json:"venue,omitempty"`
	Price    *float64           `json:"price,omitempty"`
	Free     bool               `json:"free"`
	StartsAt string             `json:"starts_at"`
	Stats    catalog.EventStats `json:"stats"`
}

// EventHandlers serves event detail reads.
type EventHandlers struct {
	events EventSource
}

// NewEventHandlers creates a new EventHandlers instance.
func NewEventHandlers(events EventSource) *EventHandlers {
	return &EventHandlers{events: events}
}

// GetEvent handles GET /events/{id}.
func (h *EventHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	eventID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/events/"), "/")
	if eventID == "" || strings.Contains(eventID, "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Event ID is required")
		return
	}

	event, err := h.events.GetEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, catalog.ErrEventNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Event not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to load event", "event_id", eventID, "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load event")
		return
	}

	stats, err := h.events.GetEventStats(r.Context(), eventID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load event stats", "event_id", eventID, "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load event")
		return
	}

	response := EventResponse{
		EventID:  event.ID,
		Title:    event.Title,
		Category: event.Category,
		City:     event.City,
		Venue:    event.Venue,
		Price:    event.Price,
		Free:     event.IsFree(),
		StartsAt: event.StartsAt.Format(time.RFC3339),
		Stats:    stats,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode event response", "error", err)
	}
}
