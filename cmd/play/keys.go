package main

import (
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/runner"
	"github.com/stemsi/quizrunner/internal/view"
)

// eventForKey maps a key press to a session event. Number keys pick the
// option at that position on the current question.
func eventForKey(questions []model.Question, s runner.State, key byte) (runner.Event, bool) {
	if s.Finished() {
		if key == 't' {
			return runner.Retake{}, true
		}
		return nil, false
	}

	switch {
	case key >= '1' && key <= '9':
		options := questions[s.Index].Options
		i := int(key - '1')
		if i >= len(options) {
			return nil, false
		}
		return runner.SelectOption{OptionID: options[i].ID}, true
	case key == 'n':
		return runner.Advance{}, true
	case key == 'c':
		return runner.ClosePanel{}, true
	}

	if p, ok := view.PanelForKey(key); ok {
		return runner.OpenPanel{Panel: p}, true
	}
	return nil, false
}
