package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/onnwee/culturank/internal/middleware"
	"github.com/onnwee/culturank/internal/store"
)

// AuditReader reads back recent ranking audit entries for a user.
type AuditReader interface {
	Recent(ctx context.Context, userID string, limit int) ([]store.AuditEntry, error)
}

// AuditEntryResponse is one ranking pass in the audit trail.
type AuditEntryResponse struct {
	RecordedAt     string               `json:"recorded_at"`
	WeightsVersion int64                `json:"weights_version"`
	Results        []AuditResultPayload `json:"results"`
}

// AuditResultPayload is one scored event within an audit entry.
type AuditResultPayload struct {
	EventID string   `json:"event_id"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// AuditResponse is the response body for the audit trail endpoint.
type AuditResponse struct {
	UserID  string               `json:"user_id"`
	Entries []AuditEntryResponse `json:"entries"`
}

// AuditHandlers serves the per-user ranking audit trail.
type AuditHandlers struct {
	audit AuditReader
}

// NewAuditHandlers creates a new AuditHandlers instance.
func NewAuditHandlers(audit AuditReader) *AuditHandlers {
	return &AuditHandlers{audit: audit}
}

// GetAudit handles GET /users/{id}/audit.
func (h *AuditHandlers) GetAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := userIDFromPath(r.URL.Path, "/audit")
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
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.audit.Recent(r.Context(), userID, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to read audit trail", "user_id", userID, "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to read audit trail")
		return
	}

	response := AuditResponse{
		UserID:  userID,
		Entries: make([]AuditEntryResponse, 0, len(entries)),
	}
	for _, entry := range entries {
		item := AuditEntryResponse{
			RecordedAt:     entry.RecordedAt.Format(time.RFC3339),
			WeightsVersion: entry.WeightsVersion,
			Results:        make([]AuditResultPayload, 0, len(entry.Results)),
		}
		for _, result := range entry.Results {
			item.Results = append(item.Results, AuditResultPayload{
				EventID: result.EventID,
				Score:   result.Score,
				Reasons: result.Reasons,
			})
		}
		response.Entries = append(response.Entries, item)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode audit response", "error", err)
	}
}
