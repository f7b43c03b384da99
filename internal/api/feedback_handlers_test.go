package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/culturank/internal/catalog"
)

func postInteraction(t *testing.T, handlers *FeedbackHandlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handlers.RecordInteraction(w, req)
	return w
}

func TestRecordInteraction_Success(t *testing.T) {
	service, _, users, stats := newTestService(t, nil)
	handlers := NewFeedbackHandlers(service)

	w := postInteraction(t, handlers, `{
		"user_id": "u1",
		"event_id": "ev-1",
		"type": "save",
		"category": "musique"
	}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var response FeedbackResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.InteractionID == "" {
		t.Error("expected an interaction ID")
	}
	if len(response.LearnedCategories) != 1 || response.LearnedCategories[0] != catalog.CategoryMusique {
		t.Errorf("expected learned categories [musique], got %v", response.LearnedCategories)
	}

	history, err := users.GetInteractionHistory(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 stored interaction, got %d", len(history))
	}
	if len(stats.calls) != 1 {
		t.Errorf("expected 1 stats call, got %d", len(stats.calls))
	}
}

func TestRecordInteraction_InvalidRating(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewFeedbackHandlers(service)

	w := postInteraction(t, handlers, `{"user_id": "u1", "type": "rate", "rating": 9}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error.Code != ErrCodeInvalidRating {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidRating, resp.Error.Code)
	}
}

func TestRecordInteraction_UnknownType(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewFeedbackHandlers(service)

	w := postInteraction(t, handlers, `{"user_id": "u1", "type": "teleport"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error.Code != ErrCodeUnknownInteraction {
		t.Errorf("expected code %s, got %s", ErrCodeUnknownInteraction, resp.Error.Code)
	}
}

func TestRecordInteraction_NegativePrice(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewFeedbackHandlers(service)

	w := postInteraction(t, handlers, `{"user_id": "u1", "type": "view", "price": -10}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error.Code != ErrCodeNegativePrice {
		t.Errorf("expected code %s, got %s", ErrCodeNegativePrice, resp.Error.Code)
	}
}

func TestRecordInteraction_MissingUserID(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewFeedbackHandlers(service)

	w := postInteraction(t, handlers, `{"type": "view"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error.Code != ErrCodeMissingUserID {
		t.Errorf("expected code %s, got %s", ErrCodeMissingUserID, resp.Error.Code)
	}
}

func TestRecordInteraction_InvalidJSON(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewFeedbackHandlers(service)

	w := postInteraction(t, handlers, `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error.Code != ErrCodeBadRequest {
		t.Errorf("expected code %s, got %s", ErrCodeBadRequest, resp.Error.Code)
	}
}

func TestRecordInteraction_MethodNotAllowed(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewFeedbackHandlers(service)

	req := httptest.NewRequest(http.MethodGet, "/interactions", nil)
	w := httptest.NewRecorder()

	handlers.RecordInteraction(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}
