package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/model"
)

// ErrClosed is returned when events are sent to a torn-down runner.
var ErrClosed = errors.New("quiz session closed")

// TickerFunc starts a periodic tick and returns its channel and a stop func.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Option customises a Runner.
type Option func(*Runner)

// WithTicker replaces the wall-clock ticker.
func WithTicker(f TickerFunc) Option {
	return func(r *Runner) { r.ticker = f }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

type envelope struct {
	event Event
	reply chan State
}

// Runner drives one quiz session. A single goroutine owns the state and
// applies every event, including timer ticks, in order.
type Runner struct {
	id       uuid.UUID
	machine  *Machine
	events   chan envelope
	done     chan struct{}
	cancel   context.CancelFunc
	ticker   TickerFunc
	interval time.Duration
	log      zerolog.Logger

	mu         sync.Mutex
	snapshot   State
	lastActive time.Time
	subs       map[uint64]chan State
	nextSub    uint64
	closeOnce  sync.Once
}

// New starts a runner for quiz. The countdown begins immediately.
func New(quiz *model.Quiz, rules Rules, opts ...Option) (*Runner, error) {
	m, err := NewMachine(quiz, rules)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		id:         uuid.New(),
		machine:    m,
		events:     make(chan envelope),
		done:       make(chan struct{}),
		cancel:     cancel,
		ticker:     systemTicker,
		interval:   time.Second,
		log:        zerolog.Nop(),
		snapshot:   m.Initial(),
		lastActive: time.Now(),
		subs:       make(map[uint64]chan State),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("session_id", r.id.String()).Logger()

	go r.loop(ctx, r.snapshot)
	return r, nil
}

// ID returns the session identifier.
func (r *Runner) ID() uuid.UUID { return r.id }

// Quiz returns the quiz being played.
func (r *Runner) Quiz() *model.Quiz { return r.machine.Quiz() }

// State returns the latest snapshot.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// LastActive returns the time of the last user event.
func (r *Runner) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// Dispatch applies e and returns the resulting state.
func (r *Runner) Dispatch(ctx context.Context, e Event) (State, error) {
	reply := make(chan State, 1)
	select {
	case r.events <- envelope{event: e, reply: reply}:
	case <-r.done:
		return State{}, ErrClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-r.done:
		return State{}, ErrClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Subscribe returns a channel that receives every new snapshot, starting
// with the current one. Slow readers only see the latest snapshot. The
// channel is closed when the runner is closed or unsubscribe is called.
func (r *Runner) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	ch <- r.snapshot
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
		})
	}
}

// Close stops the countdown and the event loop and releases subscribers.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		r.cancel()
		<-r.done

		r.mu.Lock()
		for id, ch := range r.subs {
			delete(r.subs, id)
			close(ch)
		}
		r.mu.Unlock()
		r.log.Debug().Msg("Session closed")
	})
}

// Done is closed once the runner has stopped.
func (r *Runner) Done() <-chan struct{} { return r.done }

func (r *Runner) loop(ctx context.Context, state State) {
	defer close(r.done)

	var (
		tickC <-chan time.Time
		stop  func()
	)
	arm := func() {
		if tickC == nil {
			tickC, stop = r.ticker(r.interval)
		}
	}
	disarm := func() {
		if stop != nil {
			stop()
			stop = nil
		}
		tickC = nil
	}
	defer disarm()

	if !state.Finished() {
		arm()
	}

	for {
		prev := state
		var reply chan State
		select {
		case <-ctx.Done():
			return

		case <-tickC:
			state = r.machine.Apply(state, Tick{})
			r.commit(prev, state, false)

		case env := <-r.events:
			state = r.machine.Apply(state, env.event)
			r.commit(prev, state, true)
			reply = env.reply
		}

		switch {
		case state.Finished():
			disarm()
		case prev.Finished() || prev.Index != state.Index:
			// A new question gets a full first second.
			disarm()
			arm()
		}

		if reply != nil {
			reply <- state
		}
	}
}

func (r *Runner) commit(prev, next State, userEvent bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userEvent {
		r.lastActive = time.Now()
	}
	if prev.Equal(next) {
		return
	}
	r.snapshot = next

	if !prev.Finished() && next.Finished() {
		sum := next.Summary()
		r.log.Info().
			Int("score", sum.Score).
			Int("correct", sum.Correct).
			Int("incorrect", sum.Incorrect).
			Int("unanswered", sum.Unanswered).
			Msg("Quiz finished")
	}

	for _, ch := range r.subs {
		select {
		case ch <- next:
		default:
			// Drop the stale snapshot so the reader gets the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}
