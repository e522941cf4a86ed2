package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/report"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.QuizService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type noticePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives one quiz session over the socket.
// The optional examId query parameter scopes the questions; without it every
// question is used.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	examID := r.URL.Query().Get("examId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	session := h.service.NewSession(nil)
	defer h.service.Close(session.ID())
	log := h.log.With().Str("session_id", session.ID()).Str("exam_id", examID).Logger()

	events, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// all socket writes happen here
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write failed")
				return
			}
		}
	}()

	push := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-writerDone:
		}
	}

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				h.forward(ev, push)
			case <-closeSignals:
				return
			}
		}
	}()

	push("loading", struct{}{})
	if err := h.loadQuestions(r.Context(), session, examID); err != nil {
		log.Warn().Err(err).Msg("load questions failed")
		push("notice", noticePayload{
			Title:       "Could not load questions",
			Description: "The quiz is unavailable right now. Please try again later.",
		})
	}
	push("state", session.Snapshot())

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				log.Debug().Err(err).Msg("ws read ended")
			}
			break
		}
		h.service.Touch(r.Context(), session.ID())
		h.dispatch(session, inbound, push)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) loadQuestions(ctx context.Context, session *app.Session, examID string) error {
	store, err := h.service.Questions(ctx, examID)
	if err != nil {
		return err
	}
	session.SetQuestions(store)
	return nil
}

// dispatch applies one client action. Actions whose effect is announced by
// a session event leave the reply to forward; rejected actions answer with
// the unchanged state.
func (h *WSHandler) dispatch(session *app.Session, in inboundMessage, push func(string, any)) {
	switch in.Type {
	case "start":
		ok, err := session.Start()
		if errors.Is(err, domain.ErrNoQuestions) {
			push("notice", noticePayload{
				Title:       "No questions available",
				Description: "This exam has no questions yet.",
			})
		}
		if !ok {
			push("state", session.Snapshot())
		}
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil || payload.Option == nil {
			push("error", errorPayload{Message: "invalid select payload"})
			return
		}
		session.SelectAnswer(*payload.Option)
		push("state", session.Snapshot())
	case "next":
		session.Next()
		push("state", session.Snapshot())
	case "previous":
		session.Previous()
		push("state", session.Snapshot())
	case "finish":
		if _, ok := session.Submit(); !ok {
			push("state", session.Snapshot())
		}
	case "results":
		r, answers, ok := session.Report()
		if !ok {
			push("state", session.Snapshot())
			return
		}
		push("results", report.Build(session.Store(), answers, r))
	case "retake":
		session.Retake()
	case "home":
		session.BackToHome()
	default:
		push("error", errorPayload{Message: "unsupported message type"})
	}
}

func (h *WSHandler) forward(ev app.Event, push func(string, any)) {
	switch ev.Type {
	case app.EventTick:
		push("tick", tickPayload{Remaining: ev.Snapshot.RemainingSeconds})
	case app.EventFinished:
		if ev.Snapshot.Report == nil {
			return
		}
		title := "Quiz Complete!"
		if ev.Snapshot.Report.TimedOut {
			title = "Time's up!"
		}
		push("notice", noticePayload{Title: title, Description: report.Notice(*ev.Snapshot.Report)})
		push("results", report.Build(ev.Store, ev.Answers, *ev.Snapshot.Report))
		push("state", ev.Snapshot)
	case app.EventHome:
		push("home", struct{}{})
		push("state", ev.Snapshot)
	default:
		push("state", ev.Snapshot)
	}
}
