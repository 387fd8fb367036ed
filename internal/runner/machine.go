package runner

import (
	"errors"

	"github.com/stemsi/quizrunner/internal/model"
)

const (
	// DefaultQuestionSeconds is the countdown given to every question.
	DefaultQuestionSeconds = 90
	// DefaultMistakeLimit ends the session once this many answers were wrong.
	DefaultMistakeLimit = 9
)

// ErrEmptyQuiz is returned when a quiz has no questions to play.
var ErrEmptyQuiz = errors.New("quiz has no questions")

// Phase enumerates the session states.
type Phase string

const (
	PhaseAwaitingAnswer Phase = "AWAITING_ANSWER"
	PhaseAnswerRevealed Phase = "ANSWER_REVEALED"
	PhaseFinished       Phase = "FINISHED"
)

// AnswerState is the outcome recorded for one question.
type AnswerState string

const (
	AnswerUnanswered AnswerState = "UNANSWERED"
	AnswerCorrect    AnswerState = "CORRECT"
	AnswerIncorrect  AnswerState = "INCORRECT"
)

// Answer is the per-question record of a session.
type Answer struct {
	State    AnswerState `json:"state"`
	OptionID *int64      `json:"option_id,omitempty"`
}

// State is an immutable snapshot of a quiz session. Transitions never modify
// a State in place; they return a new one.
type State struct {
	Phase     Phase       `json:"phase"`
	Index     int         `json:"index"`
	Score     int         `json:"score"`
	Correct   int         `json:"correct"`
	Incorrect int         `json:"incorrect"`
	Answers   []Answer    `json:"answers"`
	Remaining int         `json:"remaining_seconds"`
	Panel     model.Panel `json:"panel,omitempty"`
}

// Summary is reported once the session is finished.
type Summary struct {
	Score      int `json:"score"`
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
}

// Current returns the answer record of the current question.
func (s State) Current() Answer {
	if s.Index < 0 || s.Index >= len(s.Answers) {
		return Answer{State: AnswerUnanswered}
	}
	return s.Answers[s.Index]
}

// Summary computes the final counters.
func (s State) Summary() Summary {
	return Summary{
		Score:      s.Score,
		Correct:    s.Correct,
		Incorrect:  s.Incorrect,
		Unanswered: len(s.Answers) - s.Correct - s.Incorrect,
	}
}

// Finished reports whether the session reached its terminal state.
func (s State) Finished() bool {
	return s.Phase == PhaseFinished
}

// Equal compares two snapshots field by field.
func (s State) Equal(o State) bool {
	if s.Phase != o.Phase || s.Index != o.Index || s.Score != o.Score ||
		s.Correct != o.Correct || s.Incorrect != o.Incorrect ||
		s.Remaining != o.Remaining || s.Panel != o.Panel ||
		len(s.Answers) != len(o.Answers) {
		return false
	}
	for i := range s.Answers {
		a, b := s.Answers[i], o.Answers[i]
		if a.State != b.State {
			return false
		}
		if (a.OptionID == nil) != (b.OptionID == nil) {
			return false
		}
		if a.OptionID != nil && *a.OptionID != *b.OptionID {
			return false
		}
	}
	return true
}

func (s State) withAnswers() State {
	answers := make([]Answer, len(s.Answers))
	copy(answers, s.Answers)
	s.Answers = answers
	return s
}

// Event is an input to the state machine.
type Event interface {
	Name() string
}

// SelectOption picks an option of the current question.
type SelectOption struct{ OptionID int64 }

// Advance moves past the current question. Expired is set when the
// countdown triggered it.
type Advance struct{ Expired bool }

// Tick is one second of countdown.
type Tick struct{}

// Retake restarts a finished session from scratch.
type Retake struct{}

// OpenPanel shows a supplementary panel.
type OpenPanel struct{ Panel model.Panel }

// ClosePanel hides the open panel.
type ClosePanel struct{}

func (SelectOption) Name() string { return "select_option" }
func (Advance) Name() string      { return "advance" }
func (Tick) Name() string         { return "tick" }
func (Retake) Name() string       { return "retake" }
func (OpenPanel) Name() string    { return "open_panel" }
func (ClosePanel) Name() string   { return "close_panel" }

// Rules parameterise the session timing and termination.
type Rules struct {
	QuestionSeconds int
	MistakeLimit    int
}

func (r Rules) withDefaults() Rules {
	if r.QuestionSeconds <= 0 {
		r.QuestionSeconds = DefaultQuestionSeconds
	}
	if r.MistakeLimit <= 0 {
		r.MistakeLimit = DefaultMistakeLimit
	}
	return r
}

// Machine holds the immutable inputs of the transition function.
type Machine struct {
	quiz          *model.Quiz
	rules         Rules
	correctMarks  int
	negativeMarks int
}

// NewMachine builds a machine for quiz. It fails for quizzes without questions.
func NewMachine(quiz *model.Quiz, rules Rules) (*Machine, error) {
	if quiz == nil || quiz.Total() == 0 {
		return nil, ErrEmptyQuiz
	}
	return &Machine{
		quiz:          quiz,
		rules:         rules.withDefaults(),
		correctMarks:  quiz.CorrectAnswerMarks.Value(),
		negativeMarks: quiz.NegativeMarks.Value(),
	}, nil
}

// Quiz returns the quiz the machine plays.
func (m *Machine) Quiz() *model.Quiz { return m.quiz }

// Rules returns the effective rules.
func (m *Machine) Rules() Rules { return m.rules }

// Initial returns the state of a fresh session.
func (m *Machine) Initial() State {
	answers := make([]Answer, m.quiz.Total())
	for i := range answers {
		answers[i] = Answer{State: AnswerUnanswered}
	}
	return State{
		Phase:     PhaseAwaitingAnswer,
		Answers:   answers,
		Remaining: m.rules.QuestionSeconds,
	}
}

// Apply is the transition function. Events that are not valid in the
// current state leave it unchanged.
func (m *Machine) Apply(s State, e Event) State {
	switch ev := e.(type) {
	case SelectOption:
		return m.selectOption(s, ev.OptionID)
	case Advance:
		return m.advance(s)
	case Tick:
		return m.tick(s)
	case Retake:
		if s.Phase != PhaseFinished {
			return s
		}
		return m.Initial()
	case OpenPanel:
		return m.openPanel(s, ev.Panel)
	case ClosePanel:
		s.Panel = model.PanelNone
		return s
	}
	return s
}

func (m *Machine) selectOption(s State, optionID int64) State {
	if s.Phase != PhaseAwaitingAnswer {
		return s
	}
	opt, ok := m.quiz.Questions[s.Index].Option(optionID)
	if !ok {
		return s
	}

	s = s.withAnswers()
	id := optionID
	if opt.IsCorrect {
		s.Score += m.correctMarks
		s.Correct++
		s.Answers[s.Index] = Answer{State: AnswerCorrect, OptionID: &id}
	} else {
		s.Score -= m.negativeMarks
		s.Incorrect++
		s.Answers[s.Index] = Answer{State: AnswerIncorrect, OptionID: &id}
	}
	s.Phase = PhaseAnswerRevealed
	return s
}

func (m *Machine) advance(s State) State {
	if s.Phase == PhaseFinished {
		return s
	}
	s.Panel = model.PanelNone

	// The mistake limit is enforced here and nowhere else.
	if s.Incorrect >= m.rules.MistakeLimit || s.Index >= m.quiz.Total()-1 {
		s.Phase = PhaseFinished
		s.Remaining = 0
		return s
	}

	s.Index++
	s.Phase = PhaseAwaitingAnswer
	s.Remaining = m.rules.QuestionSeconds
	return s
}

func (m *Machine) tick(s State) State {
	if s.Phase == PhaseFinished {
		return s
	}
	s.Remaining--
	if s.Remaining > 0 {
		return s
	}
	return m.advance(s)
}

func (m *Machine) openPanel(s State, p model.Panel) State {
	if s.Phase != PhaseAnswerRevealed {
		return s
	}
	if !m.quiz.Questions[s.Index].HasPanel(p) {
		return s
	}
	s.Panel = p
	return s
}

// IsLast reports whether the state points at the final question.
func (m *Machine) IsLast(s State) bool {
	return s.Index == m.quiz.Total()-1
}
