// internal/lobby/lobby.go
package lobby

import (
	"time"

	"github.com/google/uuid"
)

// Lobby is an ephemeral multiplayer session grouping players around one
// restaurant search. It lives only in memory, inside a Store; every field is
// guarded by the owning Store's mutex, so nothing outside this package ever
// holds a *Lobby. Callers get value-type snapshots instead (see State).
type Lobby struct {
	// ID is the 6-character join code, always uppercase.
	ID string

	// HostID is the session that created the lobby. It never changes; only
	// the host may push recommendations, the selection, or the search context.
	HostID uuid.UUID

	CreatedAt    time.Time
	LastActivity time.Time

	// Players is the set of member session IDs. The host starts as a member.
	Players map[uuid.UUID]struct{}

	// Recommendations is the host-pushed restaurant list. The payload is
	// opaque to this package and passed through to clients unmodified.
	Recommendations []map[string]interface{}

	// Selection is the group's final pick, nil until the host commits one.
	Selection map[string]interface{}

	// Location and Mood describe the current search context.
	Location string
	Mood     string
}

func newLobby(id string, hostID uuid.UUID, now time.Time) *Lobby {
	return &Lobby{
		ID:           id,
		HostID:       hostID,
		CreatedAt:    now,
		LastActivity: now,
		Players:      map[uuid.UUID]struct{}{hostID: {}},
	}
}

// expired reports whether the lobby has been idle past the expiration window.
func (l *Lobby) expired(window time.Duration, now time.Time) bool {
	return now.Sub(l.LastActivity) > window
}

// touch refreshes the activity timestamp. Every mutating operation calls it.
func (l *Lobby) touch(now time.Time) {
	l.LastActivity = now
}
