package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizrunner/internal/response"
	"github.com/stemsi/quizrunner/internal/service"
)

// QuizHandler exposes the loader over the JSON API.
type QuizHandler struct {
	loader *service.LoaderService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(loader *service.LoaderService) *QuizHandler {
	return &QuizHandler{loader: loader}
}

// GetQuiz godoc
// GET /api/v1/quiz
// Fetches the quiz and returns its summary with a one-time handoff id.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	summary, handoffID, err := h.loader.FetchAndHandoff(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusBadGateway, response.ErrQuizUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"quiz":       summary,
		"handoff_id": handoffID,
	})
}
