// internal/lobby/lobby_store.go
package lobby

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults for the expiration policy, overridable via NewStore / NewSweeper.
const (
	DefaultExpiration    = 30 * time.Minute
	DefaultSweepInterval = 60 * time.Second
)

// Store owns every live lobby. A single mutex covers the whole table so that
// check-then-mutate sequences (join: not-expired-then-add, create:
// code-free-then-insert) are atomic with respect to concurrent joins, leaves,
// sweeps and code generation. No operation here blocks on I/O, so one lock is
// cheap and keeps the invariants easy to reason about.
type Store struct {
	mu         sync.Mutex
	lobbies    map[string]*Lobby
	expiration time.Duration

	// now is swapped out in tests to drive expiry without sleeping.
	now func() time.Time
}

// NewStore returns an empty Store whose lobbies expire after the given idle
// window. Non-positive durations fall back to DefaultExpiration.
func NewStore(expiration time.Duration) *Store {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &Store{
		lobbies:    make(map[string]*Lobby),
		expiration: expiration,
		now:        time.Now,
	}
}

// State is a point-in-time copy of one lobby, safe to read and serialize
// after the store lock is released.
type State struct {
	ID              string
	HostID          uuid.UUID
	PlayerCount     int
	Recommendations []map[string]interface{}
	Selection       map[string]interface{}
	Location        string
	Mood            string
}

// IsHost reports whether the given session created the lobby.
func (st State) IsHost(playerID uuid.UUID) bool {
	return st.HostID == playerID
}

// Summary is the external status projection: counts and presence flags only,
// never the member list.
type Summary struct {
	LobbyID            string `json:"lobby_id"`
	PlayerCount        int    `json:"player_count"`
	HasRecommendations bool   `json:"has_recommendations"`
	HasSelection       bool   `json:"has_selection"`
	Location           string `json:"location"`
	Mood               string `json:"mood"`
}

// StateUpdate carries a partial host update. Nil fields are left untouched,
// so pushing only a selection never clears the recommendation list.
type StateUpdate struct {
	Recommendations []map[string]interface{}
	Selection       map[string]interface{}
	Location        *string
	Mood            *string
}

// NormalizeCode uppercases a client-supplied lobby code. Codes are
// case-insensitive on the wire and stored uppercase.
func NormalizeCode(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Create allocates a fresh unique code, registers a new lobby with the host
// as its only player and returns a snapshot. It never fails: code uniqueness
// is checked against the live table under the store lock, and expired lobbies
// free their codes for reuse.
func (s *Store) Create(hostID uuid.UUID) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := GenerateCode(func(candidate string) bool {
		_, exists := s.lobbies[candidate]
		return exists
	})
	l := newLobby(code, hostID, s.now())
	s.lobbies[code] = l
	return snapshot(l)
}

// Get returns a snapshot of a live lobby. A lobby found past its expiration
// window is removed on the spot and reported as absent, so repeated lookups
// after expiry consistently return false.
func (s *Store) Get(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.getLive(NormalizeCode(id))
	if l == nil {
		return State{}, false
	}
	return snapshot(l), true
}

// Join adds a player to a live lobby. A second join by the same player is an
// error, not a no-op; the realtime path that wants tolerance uses
// EnsureMember.
func (s *Store) Join(id string, playerID uuid.UUID) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.getLive(NormalizeCode(id))
	if l == nil {
		return State{}, ErrNotFound
	}
	if _, member := l.Players[playerID]; member {
		return State{}, ErrAlreadyMember
	}
	l.Players[playerID] = struct{}{}
	l.touch(s.now())
	return snapshot(l), nil
}

// EnsureMember adds the player if absent and reports whether a join actually
// happened. Re-entering a lobby you are already in is not an error here; the
// realtime channel calls this on every socket attach.
func (s *Store) EnsureMember(id string, playerID uuid.UUID) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.getLive(NormalizeCode(id))
	if l == nil {
		return State{}, false, ErrNotFound
	}
	_, member := l.Players[playerID]
	if !member {
		l.Players[playerID] = struct{}{}
	}
	l.touch(s.now())
	return snapshot(l), !member, nil
}

// Leave removes the player if present; removing an absent player is a no-op.
// When the last player leaves the lobby is deleted outright, host or not, and
// its code is free for reuse. The second return reports whether the lobby is
// still live afterwards.
func (s *Store) Leave(id string, playerID uuid.UUID) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.getLive(NormalizeCode(id))
	if l == nil {
		return State{}, false
	}
	delete(l.Players, playerID)
	if len(l.Players) == 0 {
		delete(s.lobbies, l.ID)
		return State{}, false
	}
	l.touch(s.now())
	return snapshot(l), true
}

// UpdateState applies a partial update to the lobby's shared state. Only the
// host may call it; anyone else gets ErrNotHost and changes nothing.
func (s *Store) UpdateState(id string, requesterID uuid.UUID, upd StateUpdate) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.getLive(NormalizeCode(id))
	if l == nil {
		return State{}, ErrNotFound
	}
	if l.HostID != requesterID {
		return State{}, ErrNotHost
	}
	if upd.Recommendations != nil {
		l.Recommendations = upd.Recommendations
	}
	if upd.Selection != nil {
		l.Selection = upd.Selection
	}
	if upd.Location != nil {
		l.Location = *upd.Location
	}
	if upd.Mood != nil {
		l.Mood = *upd.Mood
	}
	l.touch(s.now())
	return snapshot(l), nil
}

// GetSummary returns the status projection for a live lobby.
func (s *Store) GetSummary(id string) (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.getLive(NormalizeCode(id))
	if l == nil {
		return Summary{}, false
	}
	return Summary{
		LobbyID:            l.ID,
		PlayerCount:        len(l.Players),
		HasRecommendations: len(l.Recommendations) > 0,
		HasSelection:       l.Selection != nil,
		Location:           l.Location,
		Mood:               l.Mood,
	}, true
}

// SweepExpired removes every lobby idle past the expiration window and
// returns how many were removed. The Sweeper runs this on a fixed interval;
// it is also safe to call ad hoc. Finding nothing to do is the normal case.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, l := range s.lobbies {
		if l.expired(s.expiration, now) {
			delete(s.lobbies, id)
			removed++
		}
	}
	return removed
}

// Len reports how many lobbies are currently held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lobbies)
}

// getLive returns the lobby for id if present and not expired. An expired
// lobby is purged opportunistically and reported as absent. Assumes the
// store lock is held.
func (s *Store) getLive(id string) *Lobby {
	l, ok := s.lobbies[id]
	if !ok {
		return nil
	}
	if l.expired(s.expiration, s.now()) {
		delete(s.lobbies, id)
		return nil
	}
	return l
}

// snapshot copies the fields callers may read after the lock is released.
// The recommendation slice is copied; the element maps are treated as
// immutable pass-through payloads and shared.
func snapshot(l *Lobby) State {
	var recs []map[string]interface{}
	if l.Recommendations != nil {
		recs = make([]map[string]interface{}, len(l.Recommendations))
		copy(recs, l.Recommendations)
	}
	return State{
		ID:              l.ID,
		HostID:          l.HostID,
		PlayerCount:     len(l.Players),
		Recommendations: recs,
		Selection:       l.Selection,
		Location:        l.Location,
		Mood:            l.Mood,
	}
}
