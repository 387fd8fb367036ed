package view

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/stemsi/quizrunner/internal/model"
)

// Template names.
const (
	TemplateLanding = "landing.tmpl"
	TemplateQuiz    = "quiz.tmpl"
	TemplateNoData  = "nodata.tmpl"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// LandingData feeds the landing template. Exactly one of Summary and Error
// is set.
type LandingData struct {
	Summary *model.QuizSummary
	Error   string
}

// NoDataData feeds the "no quiz data" template.
type NoDataData struct {
	Message string
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	funcs := template.FuncMap{
		"title": func(s *model.QuizSummary) string {
			if s == nil || s.Title == "" {
				return "Quiz"
			}
			return s.Title
		},
	}
	return template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))
}

// Static serves the embedded stylesheet.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
