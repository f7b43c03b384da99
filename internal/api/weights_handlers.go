package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/culturank/internal/middleware"
	"github.com/onnwee/culturank/internal/ranking"
	"github.com/onnwee/culturank/internal/trainer"
)

// Trainer triggers a weight training run on demand.
type Trainer interface {
	RunOnce(ctx context.Context) (*trainer.Report, error)
}

// WeightsResponse describes the active scoring weight vector.
type WeightsResponse struct {
	Weights   ranking.WeightVector `json:"weights"`
	Version   int64                `json:"version"`
	TrainedAt string               `json:"trained_at,omitempty"`
}

// WeightsHandlers exposes the active weight vector and a manual training
// trigger for operators.
type WeightsHandlers struct {
	holder  *ranking.Holder
	trainer Trainer
}

// NewWeightsHandlers creates a new WeightsHandlers instance. The trainer
// is optional; without one the training endpoint reports not found.
func NewWeightsHandlers(holder *ranking.Holder, t Trainer) *WeightsHandlers {
	return &WeightsHandlers{holder: holder, trainer: t}
}

// GetWeights handles GET /weights.
func (h *WeightsHandlers) GetWeights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	snapshot := h.holder.Current()
	response := WeightsResponse{
		Weights: snapshot.Weights,
		Version: snapshot.Version,
	}
	if !snapshot.TrainedAt.IsZero() {
		response.TrainedAt = snapshot.TrainedAt.UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode weights response", "error", err)
	}
}

// TriggerTraining handles POST /internal/train.
// It runs one training pass synchronously and returns its report.
func (h *WeightsHandlers) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	if h.trainer == nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Training is not enabled on this server")
		return
	}

	report, err := h.trainer.RunOnce(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "manual training run failed", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Training run failed")
		return
	}

	if report.Skipped && report.SkipReason == trainer.SkipReasonBusy {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeTrainingBusy)
		WriteError(w, ctx, http.StatusConflict, ErrCodeTrainingBusy, "A training run is already in progress")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode training report", "error", err)
	}
}
