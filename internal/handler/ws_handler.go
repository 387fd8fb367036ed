package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/response"
	"github.com/stemsi/quizrunner/internal/runner"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/view"
	ws "github.com/stemsi/quizrunner/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams session snapshots and accepts session events over a
// WebSocket.
type WSHandler struct {
	runners  *service.RunnerService
	pages    *view.Builder
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(runners *service.RunnerService, pages *view.Builder, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		runners:  runners,
		pages:    pages,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream
func (h *WSHandler) SessionStream(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	r, err := h.runners.Get(id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	h.serve(c, r)
}

// PageStream godoc
// WS /quiz/stream
// Same stream for the session referenced by the browser cookie.
func (h *WSHandler) PageStream(c *gin.Context) {
	id, ok := runnerID(sessions.Default(c))
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNoQuizData)
		return
	}
	r, err := h.runners.Get(id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	h.serve(c, r)
}

func (h *WSHandler) serve(c *gin.Context, r *runner.Runner) {
	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", r.ID().String()).Logger()
	wsLog.Debug().Msg("Client connected")

	updates, unsubscribe := r.Subscribe()
	readerDone := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for s := range updates {
			if err := conn.WriteState(h.pages.BuildFor(r, s)); err != nil {
				return
			}
		}
		select {
		case <-readerDone:
		default:
			// The session was ended elsewhere; unblock the reader.
			_ = conn.WriteClosed("session ended")
			_ = conn.Close()
		}
	}()

	h.readLoop(conn, r, wsLog)
	close(readerDone)
	unsubscribe()
	<-writerDone
}

func (h *WSHandler) readLoop(conn *ws.Conn, r *runner.Runner, wsLog zerolog.Logger) {
	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if ws.IsUnexpectedClose(err) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var event runner.Event
		switch msg.Action {
		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			continue
		case ws.ActionAnswer:
			if msg.OptionID == nil {
				_ = conn.WriteError("option_id is required")
				continue
			}
			event = runner.SelectOption{OptionID: *msg.OptionID}
		case ws.ActionAdvance:
			event = runner.Advance{}
		case ws.ActionRetake:
			event = runner.Retake{}
		case ws.ActionOpenPanel:
			panel, ok := model.ParsePanel(msg.Panel)
			if !ok {
				_ = conn.WriteError("unknown panel: " + msg.Panel)
				continue
			}
			event = runner.OpenPanel{Panel: panel}
		case ws.ActionClosePanel:
			event = runner.ClosePanel{}
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = conn.WriteError("unknown action: " + string(msg.Action))
			continue
		}

		// The resulting state reaches the client through the subscription.
		if _, err := r.Dispatch(context.Background(), event); err != nil {
			if errors.Is(err, runner.ErrClosed) {
				return
			}
			_ = conn.WriteError("dispatch failed")
		}
	}
}
