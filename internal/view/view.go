// Package view maps a quiz session onto what the screens display. The same
// page model feeds the HTML templates, the JSON API, the WebSocket stream
// and the terminal player.
package view

import (
	"html/template"

	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/runner"
	"github.com/stemsi/quizrunner/internal/service"
)

// Option highlights.
const (
	HighlightNone      = ""
	HighlightCorrect   = "correct"
	HighlightIncorrect = "incorrect"
)

// Action kinds of the primary button.
const (
	ActionSubmit = "submit"
	ActionNext   = "next"
	ActionSkip   = "skip"
)

// Page is the render model of the quiz screen.
type Page struct {
	SessionID string       `json:"session_id"`
	Title     string       `json:"title"`
	Topic     string       `json:"topic"`
	Phase     runner.Phase `json:"phase"`
	Finished  bool         `json:"finished"`
	Score     int          `json:"score"`
	Remaining int          `json:"remaining_seconds"`
	Number    int          `json:"number"`
	Total     int          `json:"total"`

	Question *QuestionView   `json:"question,omitempty"`
	Action   *Action         `json:"action,omitempty"`
	Panels   []PanelLink     `json:"panels,omitempty"`
	Panel    *PanelView      `json:"open_panel,omitempty"`
	Summary  *runner.Summary `json:"summary,omitempty"`
}

// QuestionView is the current question with its options.
type QuestionView struct {
	ID          int64        `json:"id"`
	Description string       `json:"description"`
	Mandatory   bool         `json:"mandatory"`
	Answered    bool         `json:"answered"`
	Options     []OptionView `json:"options"`
}

// OptionView is one answer button.
type OptionView struct {
	ID          int64  `json:"id"`
	Key         int    `json:"key"`
	Description string `json:"description"`
	Highlight   string `json:"highlight,omitempty"`
	Selected    bool   `json:"selected"`
}

// Action is the primary navigation button.
type Action struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	// SkipDiscouraged marks a mandatory question that is still unanswered.
	// It only changes presentation; skipping remains possible.
	SkipDiscouraged bool `json:"skip_discouraged"`
}

// PanelLink offers a panel that can be opened.
type PanelLink struct {
	Panel model.Panel `json:"panel"`
	Label string      `json:"label"`
}

// PanelView is the open overlay with sanitized content.
type PanelView struct {
	Panel model.Panel   `json:"panel"`
	Title string        `json:"title"`
	HTML  template.HTML `json:"html"`
}

// Builder renders pages. Panel bodies go through the content service so
// untrusted markup is always sanitized.
type Builder struct {
	content *service.ContentService
}

// NewBuilder creates a new Builder.
func NewBuilder(content *service.ContentService) *Builder {
	return &Builder{content: content}
}

// Build maps the session state of quiz onto a Page.
func (b *Builder) Build(quiz *model.Quiz, s runner.State) *Page {
	p := &Page{
		Title:     quiz.Title,
		Topic:     quiz.Topic,
		Phase:     s.Phase,
		Finished:  s.Finished(),
		Score:     s.Score,
		Remaining: s.Remaining,
		Number:    s.Index + 1,
		Total:     quiz.Total(),
	}

	if s.Finished() {
		sum := s.Summary()
		p.Summary = &sum
		return p
	}

	q := &quiz.Questions[s.Index]
	answer := s.Current()
	p.Question = buildQuestion(q, answer)
	p.Action = buildAction(q, answer, s.Index == quiz.Total()-1)

	if s.Phase == runner.PhaseAnswerRevealed {
		if s.Panel == model.PanelNone {
			for _, panel := range b.content.Available(q) {
				p.Panels = append(p.Panels, PanelLink{Panel: panel, Label: "Show " + panel.Title()})
			}
		} else if pc, err := b.content.Panel(q, s.Panel); err == nil {
			p.Panel = &PanelView{
				Panel: pc.Panel,
				Title: pc.Title,
				// Sanitized by the content service.
				HTML: template.HTML(pc.HTML),
			}
		}
	}
	return p
}

// BuildFor renders the current state of a live runner.
func (b *Builder) BuildFor(r *runner.Runner, s runner.State) *Page {
	p := b.Build(r.Quiz(), s)
	p.SessionID = r.ID().String()
	return p
}

func buildQuestion(q *model.Question, answer runner.Answer) *QuestionView {
	qv := &QuestionView{
		ID:          q.ID,
		Description: q.Description,
		Mandatory:   q.IsMandatory,
		Answered:    answer.State != runner.AnswerUnanswered,
		Options:     make([]OptionView, 0, len(q.Options)),
	}
	for i, opt := range q.Options {
		ov := OptionView{
			ID:          opt.ID,
			Key:         i + 1,
			Description: opt.Description,
			Selected:    answer.OptionID != nil && *answer.OptionID == opt.ID,
		}
		switch {
		case answer.State == runner.AnswerCorrect && opt.IsCorrect:
			ov.Highlight = HighlightCorrect
		case answer.State == runner.AnswerIncorrect && !opt.IsCorrect:
			// Every non-correct option is flagged after a wrong answer.
			ov.Highlight = HighlightIncorrect
		}
		qv.Options = append(qv.Options, ov)
	}
	return qv
}

func buildAction(q *model.Question, answer runner.Answer, last bool) *Action {
	answered := answer.State != runner.AnswerUnanswered
	switch {
	case last:
		return &Action{Kind: ActionSubmit, Label: "Submit"}
	case answered:
		return &Action{Kind: ActionNext, Label: "Next"}
	default:
		return &Action{Kind: ActionSkip, Label: "Skip", SkipDiscouraged: q.IsMandatory}
	}
}
