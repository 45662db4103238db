package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trivia-quiz-service/internal/app"
)

type WSHandler struct {
	service  *app.QuizService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
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

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS streams session events to the client and applies the commands it sends.
// The first message is always the current state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: codeInvalid, Message: "missing sessionId"})
		return
	}

	// Subscribing before the upgrade lets unknown sessions fail with a plain HTTP error.
	events, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	stop := make(chan struct{})
	writerDone := make(chan struct{})
	forwardDone := make(chan struct{})

	// conn supports one concurrent writer; every outbound message goes through send.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", zap.String("session_id", sessionID), zap.Error(err))
				return
			}
		}
	}()

	push := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	go func() {
		defer close(forwardDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					// session closed; wake the read loop
					_ = conn.SetReadDeadline(time.Now())
					return
				}
				if !push(outboundMessage{Type: string(event.Type), Payload: event}) {
					return
				}
			case <-stop:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.handle(r.Context(), sessionID, inbound); err != nil {
			if !push(outboundMessage{Type: "error", Payload: errorPayload{Message: wsErrorMessage(err)}}) {
				break
			}
		}
	}

	close(stop)
	<-forwardDone
	close(send)
	<-writerDone
}

type selectPayload struct {
	Answer string `json:"answer"`
}

type answerPayload struct {
	Answers []string `json:"answers"`
}

// handle applies one client command. Successful commands are reported back
// through the session's own events.
func (h *WSHandler) handle(ctx context.Context, sessionID string, msg inboundMessage) error {
	switch msg.Type {
	case "select":
		var payload selectPayload
		if err := unmarshalPayload(msg.Payload, &payload); err != nil {
			return err
		}
		_, err := h.service.Select(ctx, sessionID, payload.Answer)
		return err
	case "answer":
		var payload answerPayload
		if err := unmarshalPayload(msg.Payload, &payload); err != nil {
			return err
		}
		_, _, err := h.service.Submit(ctx, sessionID, payload.Answers)
		return err
	case "next":
		_, err := h.service.Next(ctx, sessionID)
		return err
	case "restart":
		_, err := h.service.Restart(ctx, sessionID)
		return err
	default:
		return errUnsupportedMessage
	}
}

var errUnsupportedMessage = wsError("unsupported message type")

type wsError string

func (e wsError) Error() string { return string(e) }

func wsErrorMessage(err error) string {
	var we wsError
	if errors.As(err, &we) {
		return we.Error()
	}
	_, body := errorStatus(err)
	return body.Message
}

func unmarshalPayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return wsError("invalid payload")
	}
	return nil
}
