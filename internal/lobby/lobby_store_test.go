// internal/lobby/lobby_store_test.go
package lobby

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance store time without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore() (*Store, *fakeClock) {
	clock := newFakeClock()
	s := NewStore(30 * time.Minute)
	s.now = clock.Now
	return s, clock
}

func TestCreateAssignsUniqueCodes(t *testing.T) {
	s, _ := newTestStore()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		st := s.Create(uuid.New())
		require.Len(t, st.ID, 6)
		assert.Equal(t, NormalizeCode(st.ID), st.ID, "codes are stored uppercase")
		assert.False(t, seen[st.ID], "duplicate code %s among live lobbies", st.ID)
		seen[st.ID] = true
		assert.Equal(t, 1, st.PlayerCount, "host starts as the only member")
	}
	assert.Equal(t, 200, s.Len())
}

func TestCodeReuseAfterRemoval(t *testing.T) {
	s, _ := newTestStore()
	host := uuid.New()

	st := s.Create(host)
	_, live := s.Leave(st.ID, host)
	require.False(t, live)

	// The code is free again; a fresh lobby may claim it.
	_, found := s.Get(st.ID)
	assert.False(t, found)
	assert.Equal(t, 0, s.Len())
}

func TestGetIsCaseInsensitive(t *testing.T) {
	s, _ := newTestStore()
	st := s.Create(uuid.New())

	lower, found := s.Get(strings.ToLower(st.ID))
	require.True(t, found)
	assert.Equal(t, st.ID, lower.ID)
}

func TestJoinDuplicateIsAnError(t *testing.T) {
	s, _ := newTestStore()
	host := uuid.New()
	p2 := uuid.New()
	st := s.Create(host)

	joined, err := s.Join(st.ID, p2)
	require.NoError(t, err)
	assert.Equal(t, 2, joined.PlayerCount)

	_, err = s.Join(st.ID, p2)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	// The host is already a member too.
	_, err = s.Join(st.ID, host)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestJoinUnknownOrExpiredLobby(t *testing.T) {
	s, clock := newTestStore()

	_, err := s.Join("NOPE42", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	st := s.Create(uuid.New())
	clock.Advance(31 * time.Minute)
	_, err = s.Join(st.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureMemberIsIdempotent(t *testing.T) {
	s, _ := newTestStore()
	p2 := uuid.New()
	st := s.Create(uuid.New())

	got, joined, err := s.EnsureMember(st.ID, p2)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, 2, got.PlayerCount)

	got, joined, err = s.EnsureMember(st.ID, p2)
	require.NoError(t, err)
	assert.False(t, joined, "second attach is not a join")
	assert.Equal(t, 2, got.PlayerCount)

	_, _, err = s.EnsureMember("ZZZZZZ", p2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveRemovesEmptyLobby(t *testing.T) {
	s, _ := newTestStore()
	host := uuid.New()
	p2 := uuid.New()
	st := s.Create(host)
	_, err := s.Join(st.ID, p2)
	require.NoError(t, err)

	remaining, live := s.Leave(st.ID, p2)
	require.True(t, live)
	assert.Equal(t, 1, remaining.PlayerCount)

	// Leaving twice is harmless.
	remaining, live = s.Leave(st.ID, p2)
	require.True(t, live)
	assert.Equal(t, 1, remaining.PlayerCount)

	// The host is not special-cased for removal: last one out closes the lobby.
	_, live = s.Leave(st.ID, host)
	assert.False(t, live)
	_, found := s.Get(st.ID)
	assert.False(t, found)
}

func TestHostLeavingDoesNotCloseOccupiedLobby(t *testing.T) {
	s, _ := newTestStore()
	host := uuid.New()
	p2 := uuid.New()
	st := s.Create(host)
	_, err := s.Join(st.ID, p2)
	require.NoError(t, err)

	remaining, live := s.Leave(st.ID, host)
	require.True(t, live)
	assert.Equal(t, 1, remaining.PlayerCount)

	// The departed host keeps mutation authority over the lingering lobby.
	loc := "Austin"
	_, err = s.UpdateState(st.ID, host, StateUpdate{Location: &loc})
	assert.NoError(t, err)
}

func TestUpdateStateRequiresHost(t *testing.T) {
	s, _ := newTestStore()
	host := uuid.New()
	p2 := uuid.New()
	st := s.Create(host)
	_, err := s.Join(st.ID, p2)
	require.NoError(t, err)

	loc := "Austin"
	mood := "cozy"
	_, err = s.UpdateState(st.ID, host, StateUpdate{Location: &loc, Mood: &mood})
	require.NoError(t, err)

	intruder := "Berlin"
	_, err = s.UpdateState(st.ID, p2, StateUpdate{Location: &intruder})
	assert.ErrorIs(t, err, ErrNotHost)

	got, found := s.Get(st.ID)
	require.True(t, found)
	assert.Equal(t, "Austin", got.Location, "rejected update must change nothing")
	assert.Equal(t, "cozy", got.Mood)

	_, err = s.UpdateState("ABSENT", host, StateUpdate{Location: &loc})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStateIsPartial(t *testing.T) {
	s, _ := newTestStore()
	host := uuid.New()
	st := s.Create(host)

	recs := []map[string]interface{}{
		{"name": "Taqueria Luz"},
		{"name": "Cafe X"},
	}
	loc := "Austin"
	mood := "cozy"
	_, err := s.UpdateState(st.ID, host, StateUpdate{Recommendations: recs, Location: &loc, Mood: &mood})
	require.NoError(t, err)

	// Pushing only the selection leaves everything else alone.
	sel := map[string]interface{}{"name": "Cafe X"}
	got, err := s.UpdateState(st.ID, host, StateUpdate{Selection: sel})
	require.NoError(t, err)
	assert.Equal(t, sel, got.Selection)
	assert.Len(t, got.Recommendations, 2)
	assert.Equal(t, "Austin", got.Location)
	assert.Equal(t, "cozy", got.Mood)
}

func TestExpiredLobbyIsPurgedOnLookup(t *testing.T) {
	s, clock := newTestStore()
	st := s.Create(uuid.New())

	clock.Advance(29 * time.Minute)
	_, found := s.Get(st.ID)
	require.True(t, found, "inside the window the lobby is live")

	// The lookup above refreshed nothing: Get is read-only w.r.t. activity.
	clock.Advance(2 * time.Minute)
	_, found = s.Get(st.ID)
	assert.False(t, found)
	assert.Equal(t, 0, s.Len(), "expired lobby removed as a lookup side effect")

	// Repeated lookups stay consistent.
	_, found = s.Get(st.ID)
	assert.False(t, found)
}

func TestActivityRefreshExtendsLifetime(t *testing.T) {
	s, clock := newTestStore()
	host := uuid.New()
	st := s.Create(host)

	clock.Advance(25 * time.Minute)
	_, err := s.Join(st.ID, uuid.New())
	require.NoError(t, err)

	// 25m after the join, 50m after creation: still live.
	clock.Advance(25 * time.Minute)
	_, found := s.Get(st.ID)
	assert.True(t, found)
}

func TestSweepExpired(t *testing.T) {
	s, clock := newTestStore()
	host := uuid.New()

	stale1 := s.Create(uuid.New())
	stale2 := s.Create(uuid.New())
	fresh := s.Create(host)

	clock.Advance(20 * time.Minute)
	_, _, err := s.EnsureMember(fresh.ID, host)
	require.NoError(t, err)

	clock.Advance(15 * time.Minute)
	assert.Equal(t, 2, s.SweepExpired())
	assert.Equal(t, 1, s.Len())

	_, found := s.Get(stale1.ID)
	assert.False(t, found)
	_, found = s.Get(stale2.ID)
	assert.False(t, found)
	_, found = s.Get(fresh.ID)
	assert.True(t, found)

	// A sweep with nothing to do is a no-op, not an error.
	assert.Equal(t, 0, s.SweepExpired())
}

func TestGetSummary(t *testing.T) {
	s, _ := newTestStore()
	host := uuid.New()
	st := s.Create(host)

	sum, found := s.GetSummary(st.ID)
	require.True(t, found)
	assert.Equal(t, st.ID, sum.LobbyID)
	assert.Equal(t, 1, sum.PlayerCount)
	assert.False(t, sum.HasRecommendations)
	assert.False(t, sum.HasSelection)

	loc := "Austin"
	_, err := s.UpdateState(st.ID, host, StateUpdate{
		Recommendations: []map[string]interface{}{{"name": "Cafe X"}},
		Selection:       map[string]interface{}{"name": "Cafe X"},
		Location:        &loc,
	})
	require.NoError(t, err)

	sum, found = s.GetSummary(st.ID)
	require.True(t, found)
	assert.True(t, sum.HasRecommendations)
	assert.True(t, sum.HasSelection)
	assert.Equal(t, "Austin", sum.Location)

	_, found = s.GetSummary("MISSIN")
	assert.False(t, found)
}

// TestGroupDecisionFlow walks the full session: create, join, context update,
// selection, and teardown.
func TestGroupDecisionFlow(t *testing.T) {
	s, _ := newTestStore()
	h1 := uuid.New()
	p2 := uuid.New()

	st := s.Create(h1)
	sum, _ := s.GetSummary(st.ID)
	require.Equal(t, 1, sum.PlayerCount)

	joined, err := s.Join(st.ID, p2)
	require.NoError(t, err)
	require.Equal(t, 2, joined.PlayerCount)

	loc := "Austin"
	mood := "cozy"
	got, err := s.UpdateState(st.ID, h1, StateUpdate{Location: &loc, Mood: &mood})
	require.NoError(t, err)
	assert.Equal(t, "Austin", got.Location)
	assert.Equal(t, "cozy", got.Mood)
	assert.Empty(t, got.Recommendations)

	sel := map[string]interface{}{"name": "Cafe X"}
	got, err = s.UpdateState(st.ID, h1, StateUpdate{Selection: sel})
	require.NoError(t, err)
	assert.Equal(t, sel, got.Selection)
	assert.Equal(t, "Austin", got.Location)
	assert.Equal(t, "cozy", got.Mood)

	remaining, live := s.Leave(st.ID, p2)
	require.True(t, live)
	assert.Equal(t, 1, remaining.PlayerCount)

	_, live = s.Leave(st.ID, h1)
	require.False(t, live)

	_, err = s.Join(st.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestConcurrentAccess hammers one store from many goroutines; run with
// -race. Correctness here is "no panic, no deadlock, sane final counts".
func TestConcurrentAccess(t *testing.T) {
	s := NewStore(30 * time.Minute)
	host := uuid.New()
	st := s.Create(host)

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			p := uuid.New()
			own := s.Create(p)
			for j := 0; j < 50; j++ {
				_, _, _ = s.EnsureMember(st.ID, p)
				_, _ = s.Get(st.ID)
				loc := fmt.Sprintf("city-%d-%d", i, j)
				_, _ = s.UpdateState(st.ID, host, StateUpdate{Location: &loc})
				_, _ = s.GetSummary(st.ID)
				_ = s.SweepExpired()
				s.Leave(st.ID, p)
				_, _, _ = s.EnsureMember(own.ID, p)
			}
			s.Leave(own.ID, p)
		}(i)
	}
	wg.Wait()

	got, found := s.Get(st.ID)
	require.True(t, found)
	assert.Equal(t, 1, got.PlayerCount, "only the host remains")
	assert.Equal(t, 1, s.Len(), "worker lobbies all emptied out")
}
