// internal/handlers/recommend.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tablespin/tablespin/internal/database"
)

// RecommendHandler asks the configured provider for restaurants matching a
// location and mood. The provider is a black box here: whatever model or
// search API sits upstream, this endpoint only sees the normalized list.
func RecommendHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.Provider == nil {
			writeError(w, http.StatusServiceUnavailable, "recommendations are not configured")
			return
		}

		var req struct {
			Location string `json:"location"`
			Mood     string `json:"mood"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Location = strings.TrimSpace(req.Location)
		req.Mood = strings.TrimSpace(req.Mood)
		if req.Location == "" || req.Mood == "" {
			writeError(w, http.StatusBadRequest, "location and mood are required")
			return
		}

		restaurants, err := s.Provider.Recommend(r.Context(), req.Location, req.Mood)
		if err != nil {
			s.Logger.Warnf("recommendation fetch failed for %q/%q: %v", req.Location, req.Mood, err)
			writeError(w, http.StatusBadGateway, "failed to fetch recommendations")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"restaurants": restaurants,
		})
	}
}

// RecentSelectionsHandler serves the persisted decision history.
func RecentSelectionsHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.DB == nil {
			writeError(w, http.StatusServiceUnavailable, "selection history is not configured")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		records, err := database.RecentSelections(ctx, s.DB, 20)
		if err != nil {
			s.Logger.Warnf("failed to load recent selections: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load selection history")
			return
		}
		if records == nil {
			records = []database.SelectionRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"selections": records,
		})
	}
}
