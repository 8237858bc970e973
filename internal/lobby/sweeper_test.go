// internal/lobby/sweeper_test.go
package lobby

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperRemovesExpiredLobbies(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(30 * time.Minute)
	s.now = clock.Now

	st := s.Create(uuid.New())
	clock.Advance(31 * time.Minute)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	sw := NewSweeper(s, 5*time.Millisecond, logger)
	sw.Start()
	defer sw.Stop()

	require.Eventually(t, func() bool {
		return s.Len() == 0
	}, time.Second, 5*time.Millisecond, "sweeper never reclaimed lobby %s", st.ID)
}

func TestSweeperStopTerminatesLoop(t *testing.T) {
	s := NewStore(30 * time.Minute)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	sw := NewSweeper(s, time.Millisecond, logger)
	sw.Start()

	done := make(chan struct{})
	go func() {
		sw.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}

	// The loop is gone; further sweeps happen only on demand.
	assert.Equal(t, 0, s.SweepExpired())
}
