package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/response"
	"github.com/stemsi/quizrunner/internal/runner"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/validator"
	"github.com/stemsi/quizrunner/internal/view"
)

// Cookie session keys. The browser only ever holds ids; the payload and
// the session state stay on the server.
const (
	sessionKeyHandoff = "handoff"
	sessionKeyRunner  = "runner"
)

// fetchFailedMessage is shown on the landing screen when loading fails.
const fetchFailedMessage = "Error occurred while fetching data"

// PageHandler serves the server-rendered landing and quiz screens.
type PageHandler struct {
	loader  *service.LoaderService
	runners *service.RunnerService
	pages   *view.Builder
	log     zerolog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(loader *service.LoaderService, runners *service.RunnerService, pages *view.Builder, log zerolog.Logger) *PageHandler {
	return &PageHandler{
		loader:  loader,
		runners: runners,
		pages:   pages,
		log:     log.With().Str("component", "page_handler").Logger(),
	}
}

// Landing godoc
// GET /
// Fetches the quiz, parks the payload in the handoff store and shows the stats.
func (h *PageHandler) Landing(c *gin.Context) {
	summary, handoffID, err := h.loader.FetchAndHandoff(c.Request.Context())
	if err != nil {
		c.HTML(http.StatusBadGateway, view.TemplateLanding, view.LandingData{Error: fetchFailedMessage})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyHandoff, handoffID)
	if err := session.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		c.HTML(http.StatusInternalServerError, view.TemplateLanding, view.LandingData{Error: fetchFailedMessage})
		return
	}

	c.HTML(http.StatusOK, view.TemplateLanding, view.LandingData{Summary: summary})
}

// Start godoc
// POST /start
// Redeems the handoff held by the browser and opens a quiz session.
func (h *PageHandler) Start(c *gin.Context) {
	session := sessions.Default(c)
	handoffID, _ := session.Get(sessionKeyHandoff).(string)

	// A fresh start replaces whatever session the browser had.
	if id, ok := runnerID(session); ok {
		h.runners.End(id)
		session.Delete(sessionKeyRunner)
	}

	r, err := h.runners.Start(c.Request.Context(), handoffID)
	switch {
	case err == nil:
		session.Delete(sessionKeyHandoff)
		session.Set(sessionKeyRunner, r.ID().String())
	case errors.Is(err, service.ErrTooManySessions):
		// The handoff is still redeemable once a slot frees up.
		_ = session.Save()
		h.renderNoData(c, http.StatusServiceUnavailable, response.ErrSessionLimit)
		return
	case errors.Is(err, service.ErrNoQuizData):
		session.Delete(sessionKeyHandoff)
	default:
		h.log.Error().Err(err).Msg("Failed to start quiz session")
	}

	if err := session.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
	}
	c.Redirect(http.StatusSeeOther, "/quiz")
}

// Quiz godoc
// GET /quiz
// Renders the current question, the open panel or the final summary.
func (h *PageHandler) Quiz(c *gin.Context) {
	r, ok := h.current(c)
	if !ok {
		h.renderNoData(c, http.StatusOK, response.ErrNoQuizData)
		return
	}
	c.HTML(http.StatusOK, view.TemplateQuiz, h.pages.BuildFor(r, r.State()))
}

// Answer godoc
// POST /quiz/answer
func (h *PageHandler) Answer(c *gin.Context) {
	var req model.AnswerRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		h.log.Debug().Interface("fields", fields).Msg("Invalid answer form")
		c.Redirect(http.StatusSeeOther, "/quiz")
		return
	}
	h.dispatch(c, runner.SelectOption{OptionID: *req.OptionID})
}

// Next godoc
// POST /quiz/next
// Skips, moves to the next question or submits on the last one.
func (h *PageHandler) Next(c *gin.Context) {
	h.dispatch(c, runner.Advance{})
}

// Retake godoc
// POST /quiz/retake
func (h *PageHandler) Retake(c *gin.Context) {
	h.dispatch(c, runner.Retake{})
}

// OpenPanel godoc
// POST /quiz/panel
func (h *PageHandler) OpenPanel(c *gin.Context) {
	var req model.PanelRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		c.Redirect(http.StatusSeeOther, "/quiz")
		return
	}
	panel, _ := model.ParsePanel(req.Panel)
	h.dispatch(c, runner.OpenPanel{Panel: panel})
}

// ClosePanel godoc
// POST /quiz/panel/close
func (h *PageHandler) ClosePanel(c *gin.Context) {
	h.dispatch(c, runner.ClosePanel{})
}

// Home godoc
// POST /quiz/home
// Ends the session and returns to the landing screen.
func (h *PageHandler) Home(c *gin.Context) {
	session := sessions.Default(c)
	if id, ok := runnerID(session); ok {
		h.runners.End(id)
	}
	session.Delete(sessionKeyRunner)
	if err := session.Save(); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandler) dispatch(c *gin.Context, e runner.Event) {
	r, ok := h.current(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/quiz")
		return
	}
	if _, err := r.Dispatch(c.Request.Context(), e); err != nil && !errors.Is(err, runner.ErrClosed) {
		h.log.Warn().Err(err).Str("event", e.Name()).Msg("Dispatch failed")
	}
	c.Redirect(http.StatusSeeOther, "/quiz")
}

func (h *PageHandler) current(c *gin.Context) (*runner.Runner, bool) {
	id, ok := runnerID(sessions.Default(c))
	if !ok {
		return nil, false
	}
	r, err := h.runners.Get(id)
	if err != nil {
		return nil, false
	}
	return r, true
}

func (h *PageHandler) renderNoData(c *gin.Context, status int, code response.ErrCode) {
	c.HTML(status, view.TemplateNoData, view.NoDataData{Message: response.GetMessage(code)})
}

func runnerID(session sessions.Session) (uuid.UUID, bool) {
	raw, ok := session.Get(sessionKeyRunner).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
