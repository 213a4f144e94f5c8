package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/studymate/studymate-backend/internal/exam"
	"github.com/studymate/studymate-backend/internal/middleware"
	"github.com/studymate/studymate-backend/internal/model"
	"github.com/studymate/studymate-backend/internal/response"
	"github.com/studymate/studymate-backend/internal/service"
	ws "github.com/studymate/studymate-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
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

// WSHandler streams exam session events and accepts answers over WebSocket.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/exams/:session_id/stream
// Sends the session state, then forwards every session event. The client
// may send select, submit and ping actions.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	actor := middleware.GetActor(c)

	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	// Subscribe before upgrading so unknown sessions get a plain HTTP error.
	events, unsubscribe, err := h.sessionService.Subscribe(actor, sessionID)
	if err != nil {
		fail(c, err)
		return
	}
	defer unsubscribe()

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", actor.UserID.String()).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Taker connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	view, err := h.sessionService.View(ctx, actor, sessionID)
	if err != nil {
		_, code := failure(err)
		writeError(conn, code)
		return
	}
	conn.WriteEvent(ws.EventState, view)

	go h.forward(conn, events, cancel)

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		switch msg.Action {
		case ws.ActionSelect:
			h.handleSelect(ctx, conn, actor, sessionID, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(ctx, conn, wsLog, actor, sessionID)
		case ws.ActionPing:
			conn.WriteEvent(ws.EventPong, nil)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		}
	}
}

// forward relays session events until the session ends.
func (h *WSHandler) forward(conn *ws.Conn, events <-chan exam.Event, cancel context.CancelFunc) {
	for ev := range events {
		if err := conn.WriteEvent(ws.Event(ev.Type), ev); err != nil {
			cancel()
			return
		}
	}
	conn.CloseNormal("session ended")
	cancel()
}

func (h *WSHandler) handleSelect(ctx context.Context, conn *ws.Conn, actor service.Actor, sessionID uuid.UUID, msg *ws.RequestPayload) {
	if msg.QuestionID == uuid.Nil {
		conn.WriteError(string(response.ErrValidation), "question_id is required")
		return
	}

	_, err := h.sessionService.RecordSelection(ctx, actor, sessionID, &model.RecordSelectionRequest{
		QuestionID: msg.QuestionID,
		ChoiceIDs:  msg.ChoiceIDs,
	})
	if err != nil {
		_, code := failure(err)
		writeError(conn, code)
		return
	}
	conn.WriteEvent(ws.EventSaved, ws.SavedResponse{QuestionID: msg.QuestionID})
}

func (h *WSHandler) handleSubmit(ctx context.Context, conn *ws.Conn, wsLog zerolog.Logger, actor service.Actor, sessionID uuid.UUID) {
	result, err := h.sessionService.Submit(ctx, actor, sessionID)
	if err != nil {
		wsLog.Warn().Err(err).Msg("Submit over WebSocket failed")
		_, code := submitFailure(err)
		writeError(conn, code)
		return
	}
	conn.WriteEvent(ws.EventResult, result)
}

func writeError(conn *ws.Conn, code response.ErrCode) {
	conn.WriteError(string(code), response.GetMessage(code))
}
