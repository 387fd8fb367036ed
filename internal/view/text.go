package view

import (
	"fmt"
	"strings"

	"github.com/stemsi/quizrunner/internal/model"
)

// Terminal control sequences.
const (
	clearScreen = "\x1b[H\x1b[2J"
	green       = "\x1b[32m"
	red         = "\x1b[31m"
	bold        = "\x1b[1m"
	dim         = "\x1b[2m"
	reset       = "\x1b[0m"
)

// TextOptions tune the terminal rendering.
type TextOptions struct {
	// Color enables ANSI colors.
	Color bool
	// PlainText converts sanitized panel HTML into text.
	PlainText func(html string) string
}

// textWriter accumulates CRLF-terminated lines, which raw terminals need.
type textWriter struct {
	b     strings.Builder
	color bool
}

func (w *textWriter) line(format string, args ...interface{}) {
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteString("\r\n")
}

func (w *textWriter) style(code, s string) string {
	if !w.color {
		return s
	}
	return code + s + reset
}

// RenderLanding renders the landing stats for the terminal.
func RenderLanding(s *model.QuizSummary, opt TextOptions) string {
	w := &textWriter{color: opt.Color}
	w.b.WriteString(clearScreen)
	w.line("%s", w.style(bold, s.Title))
	w.line("Topic: %s", s.Topic)
	w.line("")
	w.line("Questions: %d    Duration: %d min", s.QuestionsCount, s.Duration)
	w.line("%s    %s",
		w.style(green, "Correct Marks: "+s.CorrectMarks),
		w.style(red, "Negative Marks: "+s.NegativeMarks))
	w.line("")
	w.line("Press Enter to start the quiz, q to quit.")
	return w.b.String()
}

// RenderText renders a quiz page for the terminal.
func RenderText(p *Page, opt TextOptions) string {
	w := &textWriter{color: opt.Color}
	w.b.WriteString(clearScreen)

	if p.Finished {
		renderSummary(w, p)
		return w.b.String()
	}

	w.line("%s", w.style(bold, p.Title))
	w.line("Topic: %s", p.Topic)
	w.line("Score: %d    Time Left: %ds    Question %d of %d", p.Score, p.Remaining, p.Number, p.Total)
	w.line("")

	if p.Panel != nil {
		renderPanel(w, p.Panel, opt)
		return w.b.String()
	}

	q := p.Question
	w.line("%s", q.Description)
	w.line("")
	for _, o := range q.Options {
		label := fmt.Sprintf("  [%d] %s", o.Key, o.Description)
		switch o.Highlight {
		case HighlightCorrect:
			label = w.style(green, label+"  ✓")
		case HighlightIncorrect:
			label = w.style(red, label+"  ✗")
		}
		if o.Selected {
			label += " " + w.style(dim, "(your answer)")
		}
		w.line("%s", label)
	}
	w.line("")

	keys := []string{}
	if !q.Answered {
		keys = append(keys, "1-9 answer")
	}
	action := "n " + strings.ToLower(p.Action.Label)
	if p.Action.SkipDiscouraged {
		action += " (mandatory question)"
	}
	keys = append(keys, action)
	for _, l := range p.Panels {
		keys = append(keys, panelKey(l.Panel)+" "+strings.ToLower(l.Panel.Title()))
	}
	keys = append(keys, "q quit")
	w.line("%s", w.style(dim, strings.Join(keys, " | ")))
	return w.b.String()
}

func renderPanel(w *textWriter, pv *PanelView, opt TextOptions) {
	w.line("%s", w.style(bold, "── "+pv.Title+" ──"))
	body := string(pv.HTML)
	if opt.PlainText != nil {
		body = opt.PlainText(body)
	}
	for _, l := range strings.Split(body, "\n") {
		w.line("%s", l)
	}
	w.line("")
	w.line("%s", w.style(dim, "c close | q quit"))
}

func renderSummary(w *textWriter, p *Page) {
	s := p.Summary
	w.line("%s", w.style(bold, "Thank You for Completing the Quiz!"))
	w.line("Your Score: %d", s.Score)
	w.line("")
	w.line("Correct Questions: %d", s.Correct)
	w.line("Wrong Questions: %d", s.Incorrect)
	w.line("Unanswered Questions: %d", s.Unanswered)
	w.line("")
	w.line("%s", w.style(dim, "t retake | q quit"))
}

func panelKey(p model.Panel) string {
	switch p {
	case model.PanelExplanation:
		return "e"
	case model.PanelReading:
		return "r"
	case model.PanelPractice:
		return "p"
	}
	return "?"
}

// PanelForKey maps a terminal key to the panel it opens.
func PanelForKey(key byte) (model.Panel, bool) {
	switch key {
	case 'e':
		return model.PanelExplanation, true
	case 'r':
		return model.PanelReading, true
	case 'p':
		return model.PanelPractice, true
	}
	return model.PanelNone, false
}
