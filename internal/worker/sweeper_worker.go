package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	// SweepInterval is how often idle sessions and expired handoffs are collected.
	SweepInterval = time.Minute
)

// SessionSweeper is the part of the session registry the sweeper needs.
type SessionSweeper interface {
	SweepIdle(idle time.Duration) int
}

// HandoffPurger is implemented by handoff stores that expire entries lazily.
type HandoffPurger interface {
	Purge() int
}

// SweeperWorker ends idle quiz sessions and drops expired in-memory
// handoffs.
type SweeperWorker struct {
	sessions SessionSweeper
	handoffs HandoffPurger
	idle     time.Duration
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeperWorker creates a new SweeperWorker. handoffs may be nil when the
// store expires entries itself (Redis).
func NewSweeperWorker(sessions SessionSweeper, handoffs HandoffPurger, idle time.Duration, log zerolog.Logger) *SweeperWorker {
	return &SweeperWorker{
		sessions: sessions,
		handoffs: handoffs,
		idle:     idle,
		interval: SweepInterval,
		log:      log.With().Str("component", "sweeper_worker").Logger(),
	}
}

// WithInterval overrides SweepInterval.
func (w *SweeperWorker) WithInterval(d time.Duration) *SweeperWorker {
	w.interval = d
	return w
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *SweeperWorker) Start(ctx context.Context) {
	w.log.Info().Dur("idle", w.idle).Msg("SweeperWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("SweeperWorker stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *SweeperWorker) sweep() {
	evicted := 0
	if w.idle > 0 {
		evicted = w.sessions.SweepIdle(w.idle)
	}
	purged := 0
	if w.handoffs != nil {
		purged = w.handoffs.Purge()
	}
	if evicted > 0 || purged > 0 {
		w.log.Debug().
			Int("sessions_evicted", evicted).
			Int("handoffs_purged", purged).
			Msg("Sweep finished")
	}
}
