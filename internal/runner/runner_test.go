package runner

import (
	"context"
	"sync"
	"testing"
	"time"
)

// manualClock hands out tick channels that the test fires by hand.
type manualClock struct {
	mu     sync.Mutex
	ch     chan time.Time
	armed  int
	active bool
}

func (c *manualClock) ticker(time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ch = make(chan time.Time)
	c.armed++
	c.active = true
	ch := c.ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.ch == ch {
			c.active = false
		}
	}
}

func (c *manualClock) armedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

func (c *manualClock) isActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// tick delivers one tick, failing if the runner is not listening.
func (c *manualClock) tick(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	select {
	case ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("runner is not consuming ticks")
	}
}

func newTestRunner(t *testing.T, n int, rules Rules) (*Runner, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	r, err := New(testQuiz(n, "2", "1"), rules, WithTicker(clock.ticker))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Close)
	return r, clock
}

func waitFor(t *testing.T, r *Runner, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s := r.State(); cond(s) {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met, last state %+v", r.State())
	return State{}
}

func TestRunnerDispatch(t *testing.T) {
	r, _ := newTestRunner(t, 3, Rules{})
	ctx := context.Background()

	s, err := r.Dispatch(ctx, SelectOption{OptionID: 1})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if s.Score != 2 || s.Phase != PhaseAnswerRevealed {
		t.Fatalf("unexpected state %+v", s)
	}
	if got := r.State(); !got.Equal(s) {
		t.Fatalf("snapshot %+v differs from reply %+v", got, s)
	}
}

func TestRunnerTimerAdvancesOnExpiry(t *testing.T) {
	r, clock := newTestRunner(t, 2, Rules{QuestionSeconds: 2})

	clock.tick(t)
	waitFor(t, r, func(s State) bool { return s.Remaining == 1 })
	clock.tick(t)
	s := waitFor(t, r, func(s State) bool { return s.Index == 1 })
	if s.Remaining != 2 || s.Answers[0].State != AnswerUnanswered {
		t.Fatalf("unexpected state after expiry %+v", s)
	}
}

func TestRunnerStopsTimerWhenFinished(t *testing.T) {
	r, clock := newTestRunner(t, 1, Rules{})
	ctx := context.Background()

	if _, err := r.Dispatch(ctx, Advance{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if clock.isActive() {
		t.Fatal("timer still armed after finish")
	}

	armed := clock.armedCount()
	if _, err := r.Dispatch(ctx, Retake{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !clock.isActive() || clock.armedCount() != armed+1 {
		t.Fatal("retake must restart the timer")
	}
}

func TestRunnerRestartsCadenceOnNewQuestion(t *testing.T) {
	r, clock := newTestRunner(t, 3, Rules{})
	before := clock.armedCount()
	if _, err := r.Dispatch(context.Background(), Advance{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if clock.armedCount() != before+1 {
		t.Fatalf("armed = %d, want %d", clock.armedCount(), before+1)
	}
}

func TestRunnerSubscribe(t *testing.T) {
	r, _ := newTestRunner(t, 2, Rules{})
	updates, unsubscribe := r.Subscribe()
	defer unsubscribe()

	first := <-updates
	if first.Phase != PhaseAwaitingAnswer {
		t.Fatalf("first snapshot %+v", first)
	}

	if _, err := r.Dispatch(context.Background(), SelectOption{OptionID: 2}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	select {
	case s := <-updates:
		if s.Incorrect != 1 {
			t.Fatalf("snapshot %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestRunnerCloseReleasesEverything(t *testing.T) {
	r, clock := newTestRunner(t, 2, Rules{})
	updates, _ := r.Subscribe()
	<-updates

	r.Close()

	if _, ok := <-updates; ok {
		t.Fatal("subscription should be closed")
	}
	if _, err := r.Dispatch(context.Background(), Advance{}); err != ErrClosed {
		t.Fatalf("Dispatch after close: %v", err)
	}
	if clock.isActive() {
		t.Fatal("timer still armed after close")
	}

	late, _ := r.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("subscribing to a closed runner should yield a closed channel")
	}
}

func TestRunnerTracksActivity(t *testing.T) {
	r, clock := newTestRunner(t, 2, Rules{})
	start := r.LastActive()

	time.Sleep(5 * time.Millisecond)
	clock.tick(t)
	waitFor(t, r, func(s State) bool { return s.Remaining == DefaultQuestionSeconds-1 })
	if !r.LastActive().Equal(start) {
		t.Fatal("ticks must not count as activity")
	}

	if _, err := r.Dispatch(context.Background(), SelectOption{OptionID: 1}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !r.LastActive().After(start) {
		t.Fatal("user events must refresh activity")
	}
}
