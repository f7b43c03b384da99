// Package api provides HTTP handlers for the recommendation API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/culturank/internal/middleware"
	"github.com/onnwee/culturank/internal/ranking"
)

// RecommendationItem is one recommended event in the response.
type RecommendationItem struct {
	EventID  string   `json:"event_id"`
	Title    string   `json:"title,omitempty"`
	Category string   `json:"category"`
	City     string   `json:"city,omitempty"`
	Venue    string   `json:"venue,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	StartsAt string   `json:"starts_at"`
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons"`
}

// RecommendationsResponse is the response for the recommendations endpoint.
type RecommendationsResponse struct {
	UserID         string               `json:"user_id"`
	Results        []RecommendationItem `json:"results"`
	WeightsVersion int64                `json:"weights_version"`
}

// RecommendHandlers holds dependencies for recommendation HTTP handlers.
type RecommendHandlers struct {
	service *Service
}

// NewRecommendHandlers creates a new RecommendHandlers instance.
func NewRecommendHandlers(service *Service) *RecommendHandlers {
	return &RecommendHandlers{service: service}
}

// userIDFromPath extracts the user ID from paths shaped
// /users/{id}/<suffix>.
func userIDFromPath(path, suffix string) string {
	rest := strings.TrimPrefix(path, "/users/")
	rest = strings.TrimSuffix(rest, suffix)
	return strings.Trim(rest, "/")
}

// GetRecommendations handles GET /users/{id}/recommendations.
//
// Query parameters:
//
//	limit        - result count (default and cap are server configured)
//	exclude_seen - when true, drops events the user already viewed or clicked
func (h *RecommendHandlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := userIDFromPath(r.URL.Path, "/recommendations")
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeMissingUserID)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeMissingUserID, "User ID is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	excludeSeen := false
	if raw := r.URL.Query().Get("exclude_seen"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "exclude_seen must be a boolean")
			return
		}
		excludeSeen = parsed
	}

	results, err := h.service.Recommend(r.Context(), userID, limit, excludeSeen)
	if err != nil {
		slog.ErrorContext(r.Context(), "recommendation pass failed", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to compute recommendations")
		return
	}

	response := RecommendationsResponse{
		UserID:  userID,
		Results: make([]RecommendationItem, 0, len(results)),
	}
	if len(results) > 0 {
		response.WeightsVersion = results[0].WeightsVersion
	}
	for _, res := range results {
		response.Results = append(response.Results, toRecommendationItem(res))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode recommendations response", "error", err)
	}
}

// toRecommendationItem flattens a scored event for the wire.
func toRecommendationItem(res ranking.ScoredEvent) RecommendationItem {
	return RecommendationItem{
		EventID:  res.Event.ID,
		Title:    res.Event.Title,
		Category: res.Event.Category,
		City:     res.Event.City,
		Venue:    res.Event.Venue,
		Price:    res.Event.Price,
		StartsAt: res.Event.StartsAt.Format(time.RFC3339),
		Score:    res.Score,
		Reasons:  res.Reasons,
	}
}
