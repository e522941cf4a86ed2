package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/infra/memory"
	"exam-quiz-service/internal/metrics"
	"github.com/rs/zerolog"
)

type source interface {
	app.QuestionLoader
	app.ExamCatalog
}

// idleTicks never fires so the countdown stays put during a test.
func idleTicks() (<-chan time.Time, func()) {
	return make(chan time.Time), func() {}
}

func newTestServer(t *testing.T, src source, rec *metrics.Recorder) *httptest.Server {
	t.Helper()
	var obs app.Observer
	if rec != nil {
		obs = rec
	}
	service := app.NewQuizService(
		memory.NewSessionStore(),
		memory.NewQuestionRepository(src, time.Minute),
		src,
		app.ServiceOptions{
			Session:  app.SessionOptions{Ticks: idleTicks, Logger: zerolog.Nop()},
			Observer: obs,
		},
	)
	server := httptest.NewServer(NewRouter(RouterConfig{
		Service: service,
		Metrics: rec,
		Logger:  zerolog.Nop(),
	}))
	t.Cleanup(server.Close)
	return server
}

func staticSource() source {
	return memory.NewStaticLoader(
		[]domain.Exam{
			{ID: "exam-1", Title: "JavaScript Fundamentals", Description: "Basics."},
			{ID: "exam-2", Title: "Go Basics"},
		},
		map[string][]domain.Question{
			"exam-1": {
				{ID: "1", Text: "What is 2 + 2?", RawOptions: "3\n4\n5", CorrectOptionIndex: 1},
				{ID: "2", Text: "typeof null?", RawOptions: "null\nobject", CorrectOptionIndex: 1},
			},
			"exam-2": {},
		},
	)
}

type failingSource struct{}

func (failingSource) LoadQuestions(context.Context, string) ([]domain.Question, error) {
	return nil, &domain.FetchError{URL: "http://quiz-api/questions", Status: 503}
}

func (failingSource) ListExams(context.Context) ([]domain.Exam, error) {
	return nil, &domain.FetchError{URL: "http://quiz-api/exams", Status: 503}
}
