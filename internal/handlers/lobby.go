// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tablespin/tablespin/internal/lobby"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// CreateLobbyHandler mints a lobby with the caller as host and returns its
// join code. No body is required; identity comes from the session cookie.
func CreateLobbyHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		hostID, err := EnsureSession(w, r)
		if err != nil {
			s.Logger.Warnf("create lobby: session error: %v", err)
			writeError(w, http.StatusInternalServerError, "could not establish session")
			return
		}

		st := s.Lobbies.Create(hostID)
		s.Logger.Infof("Lobby %s created by host %s", st.ID, hostID)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"lobby_id": st.ID,
			"host_id":  hostID.String(),
		})
	}
}

// JoinLobbyHandler is the strict join path: joining a lobby you are already
// in is a conflict, not a no-op. The realtime attach uses EnsureMember
// instead.
func JoinLobbyHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			LobbyID string `json:"lobby_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.LobbyID) == "" {
			writeError(w, http.StatusBadRequest, "lobby_id is required")
			return
		}
		playerID, err := EnsureSession(w, r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not establish session")
			return
		}

		st, err := s.Lobbies.Join(req.LobbyID, playerID)
		switch {
		case errors.Is(err, lobby.ErrNotFound):
			writeError(w, http.StatusNotFound, "Lobby not found or expired")
			return
		case errors.Is(err, lobby.ErrAlreadyMember):
			writeError(w, http.StatusConflict, "Already in this lobby")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "failed to join lobby")
			return
		}

		s.Logger.Infof("Player %s joined lobby %s", playerID, st.ID)
		// Announce the join to everyone already on the realtime channel. The
		// joiner themselves is excluded; their own snapshot arrives when they
		// attach a socket.
		s.Gateway.BroadcastExcept(st.ID, playerID, playerJoinedPayload(playerID, st.PlayerCount))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":         true,
			"lobby_id":        st.ID,
			"is_host":         st.IsHost(playerID),
			"player_count":    st.PlayerCount,
			"recommendations": recsOrEmpty(st.Recommendations),
			"selection":       st.Selection,
			"location":        st.Location,
			"mood":            st.Mood,
		})
	}
}

// LeaveLobbyHandler removes the caller from a lobby. Leaving a lobby you are
// not in, or one that no longer exists, succeeds quietly.
func LeaveLobbyHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			LobbyID string `json:"lobby_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.LobbyID) == "" {
			writeError(w, http.StatusBadRequest, "lobby_id is required")
			return
		}
		playerID, err := EnsureSession(w, r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not establish session")
			return
		}

		lobbyID := lobby.NormalizeCode(req.LobbyID)
		st, live := s.Lobbies.Leave(lobbyID, playerID)
		if live {
			// The leaver may still have a socket registered; they don't need
			// to hear their own departure.
			s.Gateway.BroadcastExcept(lobbyID, playerID, playerLeftPayload(playerID, st.PlayerCount))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

// LobbyInfoHandler serves GET /api/lobby/{id}/info: the status projection
// with counts and presence flags, never the member list.
func LobbyInfoHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/lobby/"), "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] != "info" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		sum, found := s.Lobbies.GetSummary(parts[0])
		if !found {
			writeError(w, http.StatusNotFound, "Lobby not found or expired")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"lobby":   sum,
		})
	}
}
