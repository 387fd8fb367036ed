package service

import (
	"errors"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stemsi/quizrunner/internal/model"
)

// ErrPanelUnavailable is returned when a question has no content for the
// requested panel.
var ErrPanelUnavailable = errors.New("panel content not available")

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	bulletPattern = regexp.MustCompile(`(?m)^\* (.*)$`)
	spacePattern  = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLines    = regexp.MustCompile(`\n\s*\n+`)
)

// PanelContent is a sanitized panel ready for display.
type PanelContent struct {
	Panel model.Panel `json:"panel"`
	Title string      `json:"title"`
	HTML  string      `json:"html"`
}

// ContentService turns the untrusted HTML and markdown-ish text of the quiz
// payload into safe markup. It is stateless and safe for concurrent use.
type ContentService struct {
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentService creates a new ContentService.
func NewContentService() *ContentService {
	return &ContentService{
		ugc:    bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

// FormatExplanation converts **bold** runs and "* " bullet lines to HTML.
// The result is not sanitized.
func FormatExplanation(text string) string {
	out := boldPattern.ReplaceAllString(text, "<strong>$1</strong>")
	return bulletPattern.ReplaceAllString(out, "<ul><li>$1</li></ul>")
}

// Explanation returns the sanitized detailed solution.
func (s *ContentService) Explanation(q *model.Question) string {
	return s.ugc.Sanitize(FormatExplanation(q.DetailedSolution))
}

// ReadingMaterial returns the sanitized, concatenated content sections.
func (s *ContentService) ReadingMaterial(q *model.Question) string {
	if q.ReadingMaterial == nil {
		return ""
	}
	return s.ugc.Sanitize(strings.Join(q.ReadingMaterial.ContentSections, ""))
}

// PracticeMaterial returns the sanitized practice content. Entities are
// decoded before sanitizing since the payload often double-encodes markup.
func (s *ContentService) PracticeMaterial(q *model.Question) string {
	pm := q.Practice()
	if pm == nil {
		return ""
	}
	return s.ugc.Sanitize(html.UnescapeString(strings.Join(pm.Content, "")))
}

// Available lists the panels that have content for q.
func (s *ContentService) Available(q *model.Question) []model.Panel {
	return q.Panels()
}

// Panel renders panel p for q.
func (s *ContentService) Panel(q *model.Question, p model.Panel) (*PanelContent, error) {
	if q == nil || !q.HasPanel(p) {
		return nil, ErrPanelUnavailable
	}

	var body string
	switch p {
	case model.PanelExplanation:
		body = s.Explanation(q)
	case model.PanelReading:
		body = s.ReadingMaterial(q)
	case model.PanelPractice:
		body = s.PracticeMaterial(q)
	}
	return &PanelContent{Panel: p, Title: p.Title(), HTML: body}, nil
}

// PlainText strips all markup from fragment for terminal output, keeping
// block boundaries as line breaks.
func (s *ContentService) PlainText(fragment string) string {
	r := strings.NewReplacer(
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</p>", "\n", "</li>", "\n", "</h1>", "\n", "</h2>", "\n", "</h3>", "\n",
		"<li>", "- ",
	)
	text := html.UnescapeString(s.strict.Sanitize(r.Replace(fragment)))
	text = spacePattern.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n")

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
