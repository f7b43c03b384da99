package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/culturank/internal/catalog"
	"github.com/onnwee/culturank/internal/profile"
)

func TestGetRecommendations_Success(t *testing.T) {
	service, corpus, users, _ := newTestService(t, nil)
	handlers := NewRecommendHandlers(service)

	addEvent(t, corpus, "ev-musique", catalog.CategoryMusique)
	addEvent(t, corpus, "ev-art", catalog.CategoryArt)
	users.PutProfile(profile.UserProfile{
		UserID:      "u1",
		Preferences: []string{catalog.CategoryMusique},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/u1/recommendations", nil)
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response RecommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.UserID != "u1" {
		t.Errorf("expected user_id u1, got %s", response.UserID)
	}
	if len(response.Results) == 0 {
		t.Fatal("expected at least one result")
	}
	if response.Results[0].EventID != "ev-musique" {
		t.Errorf("expected preferred event first, got %s", response.Results[0].EventID)
	}
	if len(response.Results[0].Reasons) == 0 {
		t.Error("expected reasons on the top result")
	}
	if response.Results[0].Score <= 0 {
		t.Errorf("expected positive score, got %f", response.Results[0].Score)
	}
}

func TestGetRecommendations_LimitQuery(t *testing.T) {
	service, corpus, _, _ := newTestService(t, nil)
	handlers := NewRecommendHandlers(service)

	for _, id := range []string{"a", "b", "c"} {
		addEvent(t, corpus, id, catalog.CategoryFestival)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/u1/recommendations?limit=1", nil)
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response RecommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(response.Results))
	}
}

func TestGetRecommendations_InvalidLimit(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewRecommendHandlers(service)

	for _, raw := range []string{"abc", "-5", "1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/users/u1/recommendations?limit="+raw, nil)
		w := httptest.NewRecorder()

		handlers.GetRecommendations(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected status 400, got %d", raw, w.Code)
		}

		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Error.Code != ErrCodeValidation {
			t.Errorf("limit=%s: expected code %s, got %s", raw, ErrCodeValidation, resp.Error.Code)
		}
	}
}

func TestGetRecommendations_InvalidExcludeSeen(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewRecommendHandlers(service)

	req := httptest.NewRequest(http.MethodGet, "/users/u1/recommendations?exclude_seen=maybe", nil)
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetRecommendations_MissingUserID(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewRecommendHandlers(service)

	req := httptest.NewRequest(http.MethodGet, "/users//recommendations", nil)
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error.Code != ErrCodeMissingUserID {
		t.Errorf("expected code %s, got %s", ErrCodeMissingUserID, resp.Error.Code)
	}
}

func TestGetRecommendations_MethodNotAllowed(t *testing.T) {
	service, _, _, _ := newTestService(t, nil)
	handlers := NewRecommendHandlers(service)

	req := httptest.NewRequest(http.MethodPost, "/users/u1/recommendations", nil)
	w := httptest.NewRecorder()

	handlers.GetRecommendations(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestUserIDFromPath(t *testing.T) {
	tests := []struct {
		path   string
		suffix string
		want   string
	}{
		{"/users/u1/recommendations", "/recommendations", "u1"},
		{"/users/u1/audit", "/audit", "u1"},
		{"/users/u1/profile", "/profile", "u1"},
		{"/users//recommendations", "/recommendations", ""},
		{"/users/abc-def/recommendations", "/recommendations", "abc-def"},
	}

	for _, tt := range tests {
		if got := userIDFromPath(tt.path, tt.suffix); got != tt.want {
			t.Errorf("userIDFromPath(%q, %q) = %q, want %q", tt.path, tt.suffix, got, tt.want)
		}
	}
}
