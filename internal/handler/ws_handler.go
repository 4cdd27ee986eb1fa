package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/response"
	ws "github.com/stemsi/quizguard-backend/internal/websocket"
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

// TabSwitchLimiter reports whether another tab-switch report fits the pair's budget.
// Implemented by middleware.RateLimiter.
type TabSwitchLimiter interface {
	Allow(ctx context.Context, quizID, studentID int64) (bool, error)
}

// WSHandler streams focus events from the quiz page. It is the socket
// equivalent of the tab-switch and status endpoints.
type WSHandler struct {
	attempts AttemptOperator
	limiter  TabSwitchLimiter
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. limiter may be nil.
func NewWSHandler(attempts AttemptOperator, limiter TabSwitchLimiter, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		limiter:  limiter,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// StudentStream godoc
// WS /ws/quiz/:quizId/student/:studentId/stream
// Opens (or creates) the student's attempt and answers tab_switch, status
// and ping messages until the client disconnects.
func (h *WSHandler) StudentStream(c *gin.Context) {
	quizID, ok := parseID(c, "quizId")
	if !ok {
		return
	}
	studentID, ok := parseID(c, "studentId")
	if !ok {
		return
	}

	// Resolve the attempt before upgrading so unknown pairs get a plain 404.
	state, err := h.attempts.GetOrCreateAttempt(c.Request.Context(), quizID, studentID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int64("quiz_id", quizID).
		Int64("student_id", studentID).
		Logger()

	wsLog.Info().Msg("Student connected")
	_ = ws.WriteEvent(conn, ws.EventStatus, state)

	// The request context is cancelled when the handler returns, so it bounds
	// every service call made on behalf of this connection.
	ctx := c.Request.Context()

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionTabSwitch:
			h.handleTabSwitch(ctx, conn, wsLog, quizID, studentID)
		case ws.ActionStatus:
			h.handleStatus(ctx, conn, wsLog, quizID, studentID)
		case ws.ActionPing:
			_ = ws.WriteEvent(conn, ws.EventPong, nil)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = ws.WriteError(conn, "unknown action: "+string(msg.Action), string(response.ErrInvalidPayload))
		}
	}
}

func (h *WSHandler) handleTabSwitch(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, quizID, studentID int64) {
	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, quizID, studentID)
		if err != nil {
			wsLog.Warn().Err(err).Msg("Rate limiter unavailable, allowing tab switch")
		} else if !allowed {
			_ = ws.WriteError(conn, response.GetMessage(response.ErrRateLimitExceeded), string(response.ErrRateLimitExceeded))
			return
		}
	}

	result, err := h.attempts.RecordTabSwitch(ctx, quizID, studentID)
	if err != nil {
		h.writeServiceError(conn, wsLog, err)
		return
	}
	_ = ws.WriteEvent(conn, ws.EventTabSwitch, result)
}

func (h *WSHandler) handleStatus(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, quizID, studentID int64) {
	state, err := h.attempts.GetOrCreateAttempt(ctx, quizID, studentID)
	if err != nil {
		h.writeServiceError(conn, wsLog, err)
		return
	}
	_ = ws.WriteEvent(conn, ws.EventStatus, state)
}

func (h *WSHandler) writeServiceError(conn *websocket.Conn, wsLog zerolog.Logger, err error) {
	status, code := mapServiceError(err)
	if status == http.StatusInternalServerError {
		wsLog.Error().Err(err).Msg("Stream action failed")
	}
	_ = ws.WriteError(conn, response.GetMessage(code), string(code))
}
