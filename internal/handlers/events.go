// internal/handlers/events.go
package handlers

import (
	"github.com/google/uuid"

	"github.com/tablespin/tablespin/internal/lobby"
)

// Event payload builders shared by the REST and websocket paths, so both
// report lobby state with identical field names.

func recsOrEmpty(recs []map[string]interface{}) []map[string]interface{} {
	if recs == nil {
		return []map[string]interface{}{}
	}
	return recs
}

// lobbyStatePayload is the private snapshot sent to a single player, e.g. on
// socket attach. It carries that player's own host flag.
func lobbyStatePayload(st lobby.State, playerID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"type":            "lobby_state",
		"lobby_id":        st.ID,
		"is_host":         st.IsHost(playerID),
		"player_count":    st.PlayerCount,
		"recommendations": recsOrEmpty(st.Recommendations),
		"selection":       st.Selection,
		"location":        st.Location,
		"mood":            st.Mood,
	}
}

func playerJoinedPayload(playerID uuid.UUID, playerCount int) map[string]interface{} {
	return map[string]interface{}{
		"type":         "player_joined",
		"player_id":    playerID.String(),
		"player_count": playerCount,
	}
}

func playerLeftPayload(playerID uuid.UUID, playerCount int) map[string]interface{} {
	return map[string]interface{}{
		"type":         "player_left",
		"player_id":    playerID.String(),
		"player_count": playerCount,
	}
}

func stateUpdatedPayload(st lobby.State) map[string]interface{} {
	return map[string]interface{}{
		"type":            "state_updated",
		"recommendations": recsOrEmpty(st.Recommendations),
		"selection":       st.Selection,
		"location":        st.Location,
		"mood":            st.Mood,
	}
}
