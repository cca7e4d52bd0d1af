package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"lesson-progress-engine/internal/app"
	"lesson-progress-engine/internal/platform/logger"
)

type WSHandler struct {
	service  *app.LearningService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.LearningService, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type choicePayload struct {
	OptionID string `json:"optionId"`
}

type blankPayload struct {
	Answer string `json:"answer"`
}

type reorderPayload struct {
	Order []string `json:"order"`
}

type movePayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one quiz session over the socket.
// Every connection gets its own session id, so a reload that opens a new
// socket before the old one closes starts fresh and survives the old close.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	lessonID := r.URL.Query().Get("lessonId")
	if lessonID == "" {
		http.Error(w, "missing lessonId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	sessionID := uuid.NewString()
	state, err := h.service.OpenQuiz(ctx, sessionID, lessonID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	// r.Context() is already cancelled once the client is gone
	defer h.service.CloseQuiz(context.WithoutCancel(ctx), sessionID)

	log := h.log.With("lesson_id", lessonID, "session_id", sessionID)
	log.Debug("socket attached")

	if err := conn.WriteJSON(outboundMessage{Type: "state", Payload: state}); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		replies := h.handle(r, sessionID, inbound)
		for _, msg := range replies {
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("ws write error", "error", err)
				return
			}
		}
	}
	log.Debug("socket detached")
}

func (h *WSHandler) handle(r *http.Request, sessionID string, inbound inboundMessage) []outboundMessage {
	ctx := r.Context()
	var (
		out     *app.Outcome
		state   app.QuizState
		err     error
		decoded = true
	)

	switch inbound.Type {
	case "choice":
		var p choicePayload
		if decoded = decode(inbound.Payload, &p); decoded {
			var o app.Outcome
			o, state, err = h.service.AnswerChoice(ctx, sessionID, p.OptionID)
			out = &o
		}
	case "blank":
		var p blankPayload
		if decoded = decode(inbound.Payload, &p); decoded {
			var o app.Outcome
			o, state, err = h.service.AnswerBlank(ctx, sessionID, p.Answer)
			out = &o
		}
	case "reorder":
		var p reorderPayload
		if decoded = decode(inbound.Payload, &p); decoded {
			state, err = h.service.Reorder(ctx, sessionID, p.Order)
		}
	case "move":
		var p movePayload
		if decoded = decode(inbound.Payload, &p); decoded {
			state, err = h.service.MoveOrder(ctx, sessionID, p.From, p.To)
		}
	case "commit":
		var o app.Outcome
		o, state, err = h.service.CommitOrdering(ctx, sessionID)
		out = &o
	case "restart":
		state, err = h.service.Restart(ctx, sessionID)
	default:
		return []outboundMessage{{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}}
	}

	if !decoded {
		return []outboundMessage{{Type: "error", Payload: errorPayload{Message: "invalid " + inbound.Type + " payload"}}}
	}
	if err != nil {
		return []outboundMessage{{Type: "error", Payload: errorPayload{Message: err.Error()}}}
	}

	msgs := make([]outboundMessage, 0, 3)
	if out != nil {
		msgs = append(msgs, outboundMessage{Type: "outcome", Payload: *out})
	}
	msgs = append(msgs, outboundMessage{Type: "state", Payload: state})
	if out != nil && out.Accepted {
		msgs = append(msgs, outboundMessage{Type: "profile", Payload: newProfileView(ctx, h.service)})
	}
	return msgs
}

func decode(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
