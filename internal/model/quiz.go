package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultMarks is used when the quiz payload leaves a marks field empty.
const DefaultMarks = 1

// Marks is a scoring value. The quiz API sends it as a string ("4"),
// but plain JSON numbers are accepted as well.
type Marks string

// UnmarshalJSON accepts a JSON string, number or null.
func (m *Marks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode marks: %w", err)
		}
		*m = Marks(s)
		return nil
	}
	*m = Marks(data)
	return nil
}

// Value returns the integer value of the marks. Empty, unparseable or
// out-of-range values fall back to DefaultMarks; fractional values are
// truncated.
func (m Marks) Value() int {
	s := strings.TrimSpace(string(m))
	if s == "" {
		return DefaultMarks
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return DefaultMarks
	}
	return int(f)
}

// Quiz is the full quiz definition as served by the quiz API.
// It is treated as read-only once decoded.
type Quiz struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Topic              string     `json:"topic"`
	CorrectAnswerMarks Marks      `json:"correct_answer_marks"`
	NegativeMarks      Marks      `json:"negative_marks"`
	Duration           int        `json:"duration"`
	QuestionsCount     int        `json:"questions_count"`
	Questions          []Question `json:"questions"`

	IsCustom          bool   `json:"is_custom"`
	IsForm            bool   `json:"is_form"`
	IsPublished       bool   `json:"is_published"`
	LiveCount         string `json:"live_count"`
	MaxMistakeCount   int    `json:"max_mistake_count"`
	CoinCount         int    `json:"coin_count"`
	ShowAnswers       bool   `json:"show_answers"`
	ShowMasteryOption bool   `json:"show_mastery_option"`
	ShowUnanswered    bool   `json:"show_unanswered"`
	Shuffle           bool   `json:"shuffle"`
}

// Question is a single multiple-choice question.
type Question struct {
	ID               int64             `json:"id"`
	Description      string            `json:"description"`
	DetailedSolution string            `json:"detailed_solution"`
	IsMandatory      bool              `json:"is_mandatory"`
	FixSummary       string            `json:"fix_summary"`
	Options          []Option          `json:"options"`
	ReadingMaterial  *ReadingMaterial  `json:"reading_material,omitempty"`
	PracticeMaterial *PracticeMaterial `json:"practice_material,omitempty"`
}

// Option is one selectable answer of a question.
type Option struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	IsCorrect   bool   `json:"is_correct"`
	QuestionID  int64  `json:"question_id"`
}

// ReadingMaterial holds HTML content attached to a question.
type ReadingMaterial struct {
	ID               int64             `json:"id"`
	Keywords         []string          `json:"keywords"`
	Content          *string           `json:"content"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
	ContentSections  []string          `json:"content_sections"`
	PracticeMaterial *PracticeMaterial `json:"practice_material,omitempty"`
}

// PracticeMaterial holds HTML practice content, possibly entity-encoded.
type PracticeMaterial struct {
	Content  []string `json:"content"`
	Keywords []string `json:"keywords"`
}

// QuizSummary is the landing-screen view of a quiz.
type QuizSummary struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Topic          string `json:"topic"`
	QuestionsCount int    `json:"questions_count"`
	Duration       int    `json:"duration"`
	CorrectMarks   string `json:"correct_answer_marks"`
	NegativeMarks  string `json:"negative_marks"`
}

// DecodeQuiz decodes a raw quiz payload. No schema validation is done
// beyond what JSON decoding requires.
func DecodeQuiz(raw []byte) (*Quiz, error) {
	var q Quiz
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	return &q, nil
}

// Total returns the number of playable questions.
func (q *Quiz) Total() int {
	return len(q.Questions)
}

// Summary returns the landing-screen stats.
func (q *Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:             q.ID,
		Title:          q.Title,
		Topic:          q.Topic,
		QuestionsCount: q.QuestionsCount,
		Duration:       q.Duration,
		CorrectMarks:   string(q.CorrectAnswerMarks),
		NegativeMarks:  string(q.NegativeMarks),
	}
}

// Option looks up an option of the question by id.
func (q *Question) Option(id int64) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// Practice returns the practice material of the question. The copy nested
// under the reading material wins over the top-level one.
func (q *Question) Practice() *PracticeMaterial {
	if q.ReadingMaterial != nil && q.ReadingMaterial.PracticeMaterial != nil {
		return q.ReadingMaterial.PracticeMaterial
	}
	return q.PracticeMaterial
}

// HasPanel reports whether the question carries content for panel p.
func (q *Question) HasPanel(p Panel) bool {
	switch p {
	case PanelExplanation:
		return strings.TrimSpace(q.DetailedSolution) != ""
	case PanelReading:
		return q.ReadingMaterial != nil && len(q.ReadingMaterial.ContentSections) > 0
	case PanelPractice:
		pm := q.Practice()
		return pm != nil && len(pm.Content) > 0
	}
	return false
}

// Panels returns the panels available for the question, in display order.
func (q *Question) Panels() []Panel {
	var out []Panel
	for _, p := range AllPanels {
		if q.HasPanel(p) {
			out = append(out, p)
		}
	}
	return out
}
