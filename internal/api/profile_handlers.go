package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/culturank/internal/middleware"
)

// ProfileHandlers serves user profile and interaction history reads.
type ProfileHandlers struct {
	service *Service
}

// NewProfileHandlers creates a new ProfileHandlers instance.
func NewProfileHandlers(service *Service) *ProfileHandlers {
	return &ProfileHandlers{service: service}
}

// GetProfile handles GET /users/{id}/profile.
// Unknown users yield a zero-valued profile, not a 404: the system
// serves popularity-driven recommendations for them anyway.
func (h *ProfileHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := userIDFromPath(r.URL.Path, "/profile")
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeMissingUserID)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeMissingUserID, "User ID is required")
		return
	}

	state, err := h.service.UserState(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load user state", "user_id", userID, "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load profile")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(state); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode profile response", "error", err)
	}
}
