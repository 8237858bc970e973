// internal/lobby/sweeper.go
package lobby

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper drives the proactive expiration sweep: a ticker-based loop that
// calls Store.SweepExpired on a fixed interval. It exists alongside the
// opportunistic purge in Get so that abandoned lobbies are reclaimed even if
// nobody ever looks them up again.
//
// The Sweeper is owned by the process lifecycle: start it once at boot and
// Stop it on shutdown rather than leaving a detached goroutine behind.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *logrus.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper builds a sweeper for the given store. Non-positive intervals
// fall back to DefaultSweepInterval.
func NewSweeper(store *Store, interval time.Duration, logger *logrus.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (sw *Sweeper) Start() {
	go sw.run()
}

// Stop halts the loop and waits for it to exit. Safe to call once.
func (sw *Sweeper) Stop() {
	close(sw.stop)
	<-sw.done
}

func (sw *Sweeper) run() {
	defer close(sw.done)

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sw.stop:
			return
		case <-ticker.C:
			if n := sw.store.SweepExpired(); n > 0 {
				sw.logger.Infof("sweeper: removed %d expired lobbies", n)
			}
		}
	}
}
