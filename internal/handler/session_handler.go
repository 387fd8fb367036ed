package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/response"
	"github.com/stemsi/quizrunner/internal/runner"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/validator"
	"github.com/stemsi/quizrunner/internal/view"
)

// SessionHandler drives quiz sessions over the JSON API.
type SessionHandler struct {
	runners *service.RunnerService
	content *service.ContentService
	pages   *view.Builder
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(runners *service.RunnerService, content *service.ContentService, pages *view.Builder) *SessionHandler {
	return &SessionHandler{runners: runners, content: content, pages: pages}
}

// CreateSession godoc
// POST /api/v1/sessions
// Redeems a handoff id and starts a session.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	r, err := h.runners.Start(c.Request.Context(), req.HandoffID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusCreated, h.pages.BuildFor(r, r.State()))
}

// GetSession godoc
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	r, ok := h.lookup(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, h.pages.BuildFor(r, r.State()))
}

// Answer godoc
// POST /api/v1/sessions/:id/answer
func (h *SessionHandler) Answer(c *gin.Context) {
	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.dispatch(c, runner.SelectOption{OptionID: *req.OptionID})
}

// Advance godoc
// POST /api/v1/sessions/:id/advance
func (h *SessionHandler) Advance(c *gin.Context) {
	h.dispatch(c, runner.Advance{})
}

// Retake godoc
// POST /api/v1/sessions/:id/retake
func (h *SessionHandler) Retake(c *gin.Context) {
	h.dispatch(c, runner.Retake{})
}

// OpenPanel godoc
// POST /api/v1/sessions/:id/panel
func (h *SessionHandler) OpenPanel(c *gin.Context) {
	var req model.PanelRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	panel, _ := model.ParsePanel(req.Panel)
	h.dispatch(c, runner.OpenPanel{Panel: panel})
}

// ClosePanel godoc
// DELETE /api/v1/sessions/:id/panel
func (h *SessionHandler) ClosePanel(c *gin.Context) {
	h.dispatch(c, runner.ClosePanel{})
}

// GetPanel godoc
// GET /api/v1/sessions/:id/panels/:panel
// Returns sanitized panel content for the current question once its answer
// has been revealed.
func (h *SessionHandler) GetPanel(c *gin.Context) {
	panel, ok := model.ParsePanel(c.Param("panel"))
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	r, ok := h.lookup(c)
	if !ok {
		return
	}

	s := r.State()
	if s.Phase != runner.PhaseAnswerRevealed {
		response.Fail(c, http.StatusNotFound, response.ErrPanelUnavailable)
		return
	}
	pc, err := h.content.Panel(&r.Quiz().Questions[s.Index], panel)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrPanelUnavailable)
		return
	}
	response.Success(c, http.StatusOK, pc)
}

// EndSession godoc
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) EndSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	h.runners.End(id)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) dispatch(c *gin.Context, e runner.Event) {
	r, ok := h.lookup(c)
	if !ok {
		return
	}
	s, err := r.Dispatch(c.Request.Context(), e)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.pages.BuildFor(r, s))
}

func (h *SessionHandler) lookup(c *gin.Context) (*runner.Runner, bool) {
	id, ok := sessionID(c)
	if !ok {
		return nil, false
	}
	r, err := h.runners.Get(id)
	if err != nil {
		failSession(c, err)
		return nil, false
	}
	return r, true
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// failSession maps session errors onto API responses.
func failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoQuizData):
		response.Fail(c, http.StatusNotFound, response.ErrNoQuizData)
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, runner.ErrClosed):
		response.Fail(c, http.StatusGone, response.ErrSessionClosed)
	case errors.Is(err, service.ErrTooManySessions):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrSessionLimit)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
