package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/runner"
	"github.com/stemsi/quizrunner/internal/service"
)

func testQuiz() *model.Quiz {
	return &model.Quiz{
		Title:              "Genetics",
		Topic:              "Inheritance",
		CorrectAnswerMarks: "4",
		NegativeMarks:      "1",
		Questions: []model.Question{
			{
				ID:               1,
				Description:      "Which molecule stores genetic information?",
				IsMandatory:      true,
				DetailedSolution: "**DNA** stores it <script>x()</script>",
				Options: []model.Option{
					{ID: 10, Description: "DNA", IsCorrect: true},
					{ID: 11, Description: "Lipid"},
					{ID: 12, Description: "Glucose"},
				},
				ReadingMaterial: &model.ReadingMaterial{ContentSections: []string{"<p>Read</p>"}},
			},
			{
				ID:          2,
				Description: "Second",
				Options: []model.Option{
					{ID: 20, Description: "A", IsCorrect: true},
					{ID: 21, Description: "B"},
				},
			},
		},
	}
}

func build(t *testing.T, events ...runner.Event) (*Page, *model.Quiz) {
	t.Helper()
	quiz := testQuiz()
	m, err := runner.NewMachine(quiz, runner.Rules{})
	if err != nil {
		t.Fatal(err)
	}
	s := m.Initial()
	for _, e := range events {
		s = m.Apply(s, e)
	}
	return NewBuilder(service.NewContentService()).Build(quiz, s), quiz
}

func TestBuildFreshQuestion(t *testing.T) {
	p, _ := build(t)

	if p.Number != 1 || p.Total != 2 || p.Remaining != runner.DefaultQuestionSeconds {
		t.Fatalf("header = %d/%d %ds", p.Number, p.Total, p.Remaining)
	}
	if p.Action.Label != "Skip" || !p.Action.SkipDiscouraged {
		t.Fatalf("action = %+v", p.Action)
	}
	if len(p.Panels) != 0 || p.Panel != nil {
		t.Fatal("panels must not be offered before answering")
	}
	for _, o := range p.Question.Options {
		if o.Highlight != HighlightNone {
			t.Fatalf("option %d highlighted before answering", o.ID)
		}
	}
}

func TestBuildCorrectAnswer(t *testing.T) {
	p, _ := build(t, runner.SelectOption{OptionID: 10})

	if p.Action.Label != "Next" {
		t.Fatalf("label = %q", p.Action.Label)
	}
	want := []string{HighlightCorrect, HighlightNone, HighlightNone}
	for i, o := range p.Question.Options {
		if o.Highlight != want[i] {
			t.Fatalf("option %d highlight = %q, want %q", o.ID, o.Highlight, want[i])
		}
	}
	if !p.Question.Options[0].Selected {
		t.Fatal("selected option not marked")
	}
	if len(p.Panels) != 2 || p.Panels[0].Panel != model.PanelExplanation || p.Panels[1].Panel != model.PanelReading {
		t.Fatalf("panels = %+v", p.Panels)
	}
}

func TestBuildIncorrectAnswerFlagsEveryWrongOption(t *testing.T) {
	p, _ := build(t, runner.SelectOption{OptionID: 11})

	want := []string{HighlightNone, HighlightIncorrect, HighlightIncorrect}
	for i, o := range p.Question.Options {
		if o.Highlight != want[i] {
			t.Fatalf("option %d highlight = %q, want %q", o.ID, o.Highlight, want[i])
		}
	}
	if p.Score != -1 {
		t.Fatalf("score = %d", p.Score)
	}
}

func TestBuildOpenPanelIsSanitized(t *testing.T) {
	p, _ := build(t, runner.SelectOption{OptionID: 10}, runner.OpenPanel{Panel: model.PanelExplanation})

	if p.Panel == nil || p.Panel.Title != "Explanation" {
		t.Fatalf("panel = %+v", p.Panel)
	}
	html := string(p.Panel.HTML)
	if !strings.Contains(html, "<strong>DNA</strong>") || strings.Contains(html, "<script") {
		t.Fatalf("panel html = %q", html)
	}
	if len(p.Panels) != 0 {
		t.Fatal("panel buttons are hidden while a panel is open")
	}
}

func TestBuildLastQuestionSubmits(t *testing.T) {
	p, _ := build(t, runner.Advance{})
	if p.Action.Kind != ActionSubmit || p.Action.Label != "Submit" {
		t.Fatalf("action = %+v", p.Action)
	}
	if p.Number != 2 {
		t.Fatalf("number = %d", p.Number)
	}
}

func TestBuildSummary(t *testing.T) {
	p, _ := build(t, runner.SelectOption{OptionID: 10}, runner.Advance{}, runner.Advance{})

	if !p.Finished || p.Question != nil || p.Action != nil {
		t.Fatalf("finished page = %+v", p)
	}
	if *p.Summary != (runner.Summary{Score: 4, Correct: 1, Incorrect: 0, Unanswered: 1}) {
		t.Fatalf("summary = %+v", p.Summary)
	}
}

func TestTemplatesRender(t *testing.T) {
	tmpl := Templates()

	pages := map[string]interface{}{
		TemplateLanding: LandingData{Summary: &model.QuizSummary{Title: "Genetics", CorrectMarks: "4"}},
		TemplateNoData:  NoDataData{Message: "No quiz data found. Please start the quiz."},
	}
	open, _ := build(t, runner.SelectOption{OptionID: 11}, runner.OpenPanel{Panel: model.PanelReading})
	done, _ := build(t, runner.Advance{}, runner.Advance{})

	for name, data := range pages {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, TemplateQuiz, open); err != nil {
		t.Fatalf("quiz: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Reading Material") || !strings.Contains(out, "<p>Read</p>") {
		t.Fatal("open panel not rendered")
	}
	if !strings.Contains(out, "option-incorrect") {
		t.Fatal("highlight class missing")
	}

	buf.Reset()
	if err := tmpl.ExecuteTemplate(&buf, TemplateQuiz, done); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(buf.String(), "Unanswered Questions:</strong> 2") {
		t.Fatal("summary not rendered")
	}
}

func TestRenderText(t *testing.T) {
	p, _ := build(t, runner.SelectOption{OptionID: 11})
	out := RenderText(p, TextOptions{})

	for _, want := range []string{"Question 1 of 2", "[2] Lipid", "(your answer)", "n next", "e explanation", "r reading material"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[31m") {
		t.Error("colors must be off")
	}
	if strings.Contains(strings.ReplaceAll(out, "\r\n", ""), "\n") {
		t.Error("raw terminals need CRLF line endings")
	}
}

func TestRenderTextPanelAndSummary(t *testing.T) {
	content := service.NewContentService()
	p, _ := build(t, runner.SelectOption{OptionID: 10}, runner.OpenPanel{Panel: model.PanelExplanation})
	out := RenderText(p, TextOptions{PlainText: content.PlainText})
	if !strings.Contains(out, "DNA stores it") || strings.Contains(out, "<strong>") {
		t.Fatalf("panel text =\n%s", out)
	}

	p, _ = build(t, runner.Advance{}, runner.Advance{})
	out = RenderText(p, TextOptions{})
	if !strings.Contains(out, "Unanswered Questions: 2") {
		t.Fatalf("summary text =\n%s", out)
	}
}

func TestPanelForKey(t *testing.T) {
	if p, ok := PanelForKey('p'); !ok || p != model.PanelPractice {
		t.Fatal("p should open practice material")
	}
	if _, ok := PanelForKey('x'); ok {
		t.Fatal("x is not a panel key")
	}
}
