package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/middleware"
	"github.com/onnwee/culturank/internal/profile"
)

// FeedbackRequest is the request body for recording an interaction.
type FeedbackRequest struct {
	UserID   string   `json:"user_id"`
	EventID  *string  `json:"event_id,omitempty"`
	Type     string   `json:"type"`
	Rating   *int     `json:"rating,omitempty"`
	Category string   `json:"category,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Venue    string   `json:"venue,omitempty"`
}

// FeedbackResponse confirms a stored interaction.
type FeedbackResponse struct {
	InteractionID     string   `json:"interaction_id"`
	LearnedCategories []string `json:"learned_categories,omitempty"`
}

// FeedbackHandlers holds dependencies for interaction recording handlers.
type FeedbackHandlers struct {
	service *Service
}

// NewFeedbackHandlers creates a new FeedbackHandlers instance.
func NewFeedbackHandlers(service *Service) *FeedbackHandlers {
	return &FeedbackHandlers{service: service}
}

// RecordInteraction handles POST /interactions.
// Invalid ratings, unknown interaction types, and negative prices are
// rejected with specific error codes so clients can distinguish them.
func (h *FeedbackHandlers) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body")
		return
	}

	if req.UserID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeMissingUserID)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeMissingUserID, "user_id is required")
		return
	}

	interaction := profile.Interaction{
		UserID:   req.UserID,
		EventID:  req.EventID,
		Type:     req.Type,
		Rating:   req.Rating,
		Category: req.Category,
		Price:    req.Price,
		Venue:    req.Venue,
	}

	stored, learned, err := h.service.RecordFeedback(r.Context(), interaction)
	if err != nil {
		code, message := feedbackErrorCode(err)
		status := StatusCodeMapping(code)
		if status >= 500 {
			slog.ErrorContext(r.Context(), "failed to record interaction", "error", err, "user_id", req.UserID)
		}
		ctx := middleware.SetErrorCode(r.Context(), code)
		WriteError(w, ctx, status, code, message)
		return
	}

	response := FeedbackResponse{
		InteractionID:     stored.ID,
		LearnedCategories: learned,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode feedback response", "error", err)
	}
}

// feedbackErrorCode maps validation errors to API error codes.
func feedbackErrorCode(err error) (code, message string) {
	switch {
	case errors.Is(err, profile.ErrInvalidRating):
		return ErrCodeInvalidRating, "Rating must be between 1 and 5"
	case errors.Is(err, profile.ErrUnknownInteractionType):
		return ErrCodeUnknownInteraction, "Unknown interaction type"
	case errors.Is(err, profile.ErrMissingUserID):
		return ErrCodeMissingUserID, "user_id is required"
	case errors.Is(err, catalog.ErrNegativePrice):
		return ErrCodeNegativePrice, "Price must not be negative"
	default:
		return ErrCodeInternal, "Failed to record interaction"
	}
}
