package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/repository"
	"github.com/stemsi/quizrunner/internal/runner"
)

var (
	// ErrNoQuizData is returned when there is no usable quiz payload to start from.
	ErrNoQuizData = errors.New("no quiz data found")
	// ErrSessionNotFound is returned for unknown or evicted sessions.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrTooManySessions is returned when the registry is full.
	ErrTooManySessions = errors.New("too many active quiz sessions")
)

// RunnerService owns every live quiz session of the process.
type RunnerService struct {
	handoffs    repository.HandoffRepository
	rules       runner.Rules
	maxSessions int
	opts        []runner.Option
	log         zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*runner.Runner
	closed   bool
}

// NewRunnerService creates a new RunnerService. Extra runner options are
// applied to every session it starts.
func NewRunnerService(cfg *config.Config, handoffs repository.HandoffRepository, log zerolog.Logger, opts ...runner.Option) *RunnerService {
	log = log.With().Str("component", "runner_service").Logger()
	return &RunnerService{
		handoffs: handoffs,
		rules: runner.Rules{
			QuestionSeconds: cfg.QuestionSeconds,
			MistakeLimit:    cfg.MistakeLimit,
		},
		maxSessions: cfg.MaxSessions,
		opts:        append([]runner.Option{runner.WithLogger(log)}, opts...),
		log:         log,
		sessions:    make(map[uuid.UUID]*runner.Runner),
	}
}

// Start redeems a handoff and opens a session on its payload. A missing,
// already used or unusable payload yields ErrNoQuizData. When the service is
// full the handoff is left in place so the caller can retry.
func (s *RunnerService) Start(ctx context.Context, handoffID string) (*runner.Runner, error) {
	if err := s.checkCapacity(); err != nil {
		return nil, err
	}

	raw, err := s.handoffs.Take(ctx, handoffID)
	if err != nil {
		if errors.Is(err, repository.ErrHandoffNotFound) {
			s.log.Warn().Str("handoff_id", handoffID).Msg("No quiz data found for handoff")
			return nil, ErrNoQuizData
		}
		return nil, fmt.Errorf("redeem handoff: %w", err)
	}

	quiz, err := model.DecodeQuiz(raw)
	if err != nil {
		s.log.Error().Err(err).Msg("Stored quiz payload is unreadable")
		return nil, ErrNoQuizData
	}
	return s.StartWithQuiz(quiz)
}

func (s *RunnerService) checkCapacity() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacityLocked()
}

// capacityLocked must be called with s.mu held.
func (s *RunnerService) capacityLocked() error {
	if s.closed {
		return runner.ErrClosed
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.log.Warn().Int("active", len(s.sessions)).Msg("Session limit reached")
		return ErrTooManySessions
	}
	return nil
}

// StartWithQuiz opens a session on an already decoded quiz.
func (s *RunnerService) StartWithQuiz(quiz *model.Quiz) (*runner.Runner, error) {
	if quiz == nil {
		return nil, ErrNoQuizData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.capacityLocked(); err != nil {
		return nil, err
	}

	r, err := runner.New(quiz, s.rules, s.opts...)
	if err != nil {
		if errors.Is(err, runner.ErrEmptyQuiz) {
			s.log.Warn().Int64("quiz_id", quiz.ID).Msg("Quiz has no questions")
			return nil, ErrNoQuizData
		}
		return nil, err
	}
	s.sessions[r.ID()] = r

	s.log.Info().
		Str("session_id", r.ID().String()).
		Int64("quiz_id", quiz.ID).
		Int("questions", quiz.Total()).
		Msg("Quiz session started")
	return r, nil
}

// Get returns a live session.
func (s *RunnerService) Get(id uuid.UUID) (*runner.Runner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r, nil
}

// Dispatch applies e to session id.
func (s *RunnerService) Dispatch(ctx context.Context, id uuid.UUID, e runner.Event) (runner.State, error) {
	r, err := s.Get(id)
	if err != nil {
		return runner.State{}, err
	}
	state, err := r.Dispatch(ctx, e)
	if errors.Is(err, runner.ErrClosed) {
		return runner.State{}, ErrSessionNotFound
	}
	return state, err
}

// End tears down session id. Ending an unknown session is not an error.
func (s *RunnerService) End(id uuid.UUID) {
	s.mu.Lock()
	r, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		r.Close()
		s.log.Info().Str("session_id", id.String()).Msg("Quiz session ended")
	}
}

// SweepIdle ends sessions without user activity for longer than idle and
// returns how many were removed.
func (s *RunnerService) SweepIdle(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	s.mu.Lock()
	var stale []*runner.Runner
	for id, r := range s.sessions {
		if r.LastActive().Before(cutoff) {
			stale = append(stale, r)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, r := range stale {
		r.Close()
	}
	if len(stale) > 0 {
		s.log.Info().Int("evicted", len(stale)).Msg("Idle quiz sessions evicted")
	}
	return len(stale)
}

// Len returns the number of live sessions.
func (s *RunnerService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown ends every session and refuses new ones.
func (s *RunnerService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*runner.Runner)
	s.mu.Unlock()

	for _, r := range sessions {
		r.Close()
	}
	s.log.Info().Int("closed", len(sessions)).Msg("All quiz sessions closed")
}
