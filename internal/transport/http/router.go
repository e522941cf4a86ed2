package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterConfig carries the collaborators of the HTTP surface. Metrics is optional.
type RouterConfig struct {
	Service        *app.QuizService
	Metrics        *metrics.Recorder
	Logger         zerolog.Logger
	AllowedOrigins []string
}

// NewRouter mounts the REST listing, the session websocket and the metrics endpoint.
func NewRouter(cfg RouterConfig) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger(cfg.Logger, cfg.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	api := &apiHandler{service: cfg.Service}
	r.Route("/api/exams", func(r chi.Router) {
		r.Get("/", api.listExams)
		r.Get("/{examId}/questions", api.listQuestions)
		r.Post("/{examId}/refresh", api.refreshQuestions)
	})

	r.Get("/ws", NewWSHandler(cfg.Service, cfg.Logger).ServeWS)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}
	return r
}

type apiHandler struct {
	service *app.QuizService
}

func (h *apiHandler) listExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.service.ListExams(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if exams == nil {
		exams = []domain.Exam{}
	}
	respondJSON(w, http.StatusOK, exams)
}

// listQuestions serves prepared questions without their correct option.
func (h *apiHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	store, err := h.service.Questions(r.Context(), chi.URLParam(r, "examId"))
	if err != nil {
		respondError(w, err)
		return
	}
	views := make([]app.QuestionView, 0, store.Len())
	for _, q := range store.Prepared() {
		views = append(views, app.QuestionView{ID: q.ID, Text: q.Text, Options: q.Options})
	}
	respondJSON(w, http.StatusOK, views)
}

// refreshQuestions reloads an exam's questions past the cache.
func (h *apiHandler) refreshQuestions(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Refresh(r.Context(), chi.URLParam(r, "examId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"questions": n})
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrExamNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrFetch):
		status = http.StatusBadGateway
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func requestLogger(log zerolog.Logger, rec *metrics.Recorder) func(http.Handler) http.Handler {
	log = log.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			if rec != nil {
				rec.ObserveRequest(r.Method, route, status)
			}
			log.Debug().
				Str("method", r.Method).
				Str("route", route).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request served")
		})
	}
}
