package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/quizhall/quizhall-backend/internal/config"
	"github.com/quizhall/quizhall-backend/internal/middleware"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/response"
	"github.com/quizhall/quizhall-backend/internal/service"
	ws "github.com/quizhall/quizhall-backend/internal/websocket"
	"github.com/quizhall/quizhall-backend/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowlist permits all origins (development mode).
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

// WSHandler streams a live attempt: autosave, server clock sync, and submit.
type WSHandler struct {
	rdb            *redis.Client
	attemptService *service.AttemptService
	attemptCache   *service.AttemptCache
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	rdb *redis.Client,
	attemptService *service.AttemptService,
	attemptCache *service.AttemptCache,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		attemptService: attemptService,
		attemptCache:   attemptCache,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/student/sessions/:id/stream
// Upgrades to WebSocket for real-time autosave and the authoritative clock.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	studentID := claims.UserID
	teacherID := claims.TeacherID

	// Only a live attempt may stream.
	state, rej, err := h.attemptService.GetState(c.Request.Context(), studentID, teacherID, sessionID)
	if err != nil {
		ws.WriteError(conn, string(response.ErrInternal), "state lookup failed")
		return
	}
	if rej != nil {
		ws.WriteError(conn, string(rej.Code), rej.Message)
		return
	}
	if state.Status != model.AttemptStatusStarted {
		ws.WriteError(conn, string(response.ErrAttemptConflict), "attempt is not in progress")
		return
	}

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), studentID, teacherID, sessionID)
	if err != nil {
		ws.WriteError(conn, string(response.ErrAttemptConflict), "attempt lookup failed")
		return
	}

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	for {
		var envelope ws.RequestEnvelope
		raw, err := ws.ReadEnvelope(conn, &envelope)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch envelope.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, attempt, raw)
		case ws.ActionClock:
			h.handleClock(conn, wsLog, studentID, teacherID, sessionID)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, studentID, teacherID, sessionID, raw)
			return // Terminal either way, the attempt is done or refused
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			ws.WriteError(conn, "", "unknown action: "+string(envelope.Action))
		}
	}
}

// handleAutosave caches one question's selections and queues the durable write.
func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, attempt *model.Attempt, raw []byte) {
	ctx := context.Background()

	var msg ws.AutosaveRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		ws.WriteError(conn, "", "malformed autosave payload")
		return
	}

	// A well-formed UUID keeps arbitrary strings out of Redis hash fields.
	if _, err := uuid.Parse(msg.QuestionID); err != nil {
		ws.WriteError(conn, "", "invalid question_id format")
		return
	}
	if msg.Selected == nil {
		msg.Selected = []string{}
	}

	if err := h.attemptCache.SaveAnswer(ctx, attempt.SessionID, attempt.StudentID, msg.QuestionID, msg.Selected); err != nil {
		wsLog.Error().Err(err).Msg("Autosave Redis error")
		ws.WriteError(conn, "", "save failed")
		return
	}

	payload, _ := json.Marshal(worker.AnswerPayload{
		AttemptID:  attempt.ID.String(),
		QuestionID: msg.QuestionID,
		Selected:   msg.Selected,
	})
	h.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload)

	ws.WriteTyped(conn, ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved"})
}

// handleClock answers with the server-side remaining seconds. The client
// renders this; it never decides expiry on its own.
func (h *WSHandler) handleClock(conn *websocket.Conn, wsLog zerolog.Logger, studentID, teacherID int, sessionID uuid.UUID) {
	state, rej, err := h.attemptService.GetState(context.Background(), studentID, teacherID, sessionID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Clock state error")
		ws.WriteError(conn, string(response.ErrInternal), "clock unavailable")
		return
	}
	if rej != nil {
		ws.WriteError(conn, string(rej.Code), rej.Message)
		return
	}

	if state.Status != model.AttemptStatusStarted {
		ws.WriteTyped(conn, ws.ErrorResponse{Event: ws.EventCompleted, Error: "attempt is no longer in progress"})
		return
	}
	if state.RemainingSeconds <= 0 {
		ws.WriteTyped(conn, ws.ClockResponse{Event: ws.EventTimeUp, RemainingSeconds: 0})
		return
	}

	ws.WriteTyped(conn, ws.ClockResponse{Event: ws.EventClock, RemainingSeconds: state.RemainingSeconds})
}

// handleSubmit completes the attempt over the socket. Omitted responses fall
// back to the autosaved selections.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, studentID, teacherID int, sessionID uuid.UUID, raw []byte) {
	ctx := context.Background()

	var msg ws.SubmitRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		ws.WriteError(conn, "", "malformed submit payload")
		return
	}

	responses := msg.Responses
	if responses == nil {
		saved, err := h.attemptCache.Answers(ctx, sessionID, studentID)
		if err != nil {
			wsLog.Error().Err(err).Msg("Autosaved answers unavailable for submit")
			ws.WriteError(conn, string(response.ErrInternal), "submit failed")
			return
		}
		responses = saved
	}

	result, rej, err := h.attemptService.SubmitAttempt(ctx, studentID, teacherID, sessionID, responses)
	if err != nil {
		wsLog.Error().Err(err).Msg("Submit error")
		ws.WriteError(conn, string(response.ErrInternal), "submit failed")
		return
	}
	if rej != nil {
		ws.WriteError(conn, string(rej.Code), rej.Message)
		return
	}

	wsLog.Info().
		Int("score", result.Score).
		Int("total", result.Total).
		Msg("Attempt submitted over WebSocket")

	ws.WriteTyped(conn, ws.GradedResponse{Event: ws.EventGraded, Score: result.Score, Total: result.Total})
}
