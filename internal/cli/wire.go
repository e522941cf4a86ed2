package cli

import (
	"context"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/config"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/infra/api"
	"exam-quiz-service/internal/infra/memory"
	pgloader "exam-quiz-service/internal/infra/postgres"
	redisinfra "exam-quiz-service/internal/infra/redis"
	"exam-quiz-service/internal/metrics"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type questionSource interface {
	app.QuestionLoader
	app.ExamCatalog
}

// wiring is the assembled service plus whatever needs closing on exit.
type wiring struct {
	service *app.QuizService
	closers []func()
}

func (w *wiring) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}

// buildService picks the question source (Postgres, then the quiz API, then
// built-in demo data) and the cache/session backends (Redis if configured).
// rec may be nil.
func buildService(ctx context.Context, cfg config.Config, log zerolog.Logger, rec *metrics.Recorder) (*wiring, error) {
	w := &wiring{}

	var src questionSource
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, pool.Close)
		src = pgloader.NewLoader(pool)
		log.Info().Msg("questions from postgres")
	case cfg.API.URL != "":
		opts := []api.Option{}
		if rec != nil {
			opts = append(opts, api.WithObserver(rec))
		}
		src = api.NewClient(cfg.API.URL, config.TTLDuration(cfg.API.Timeout, 10*time.Second), opts...)
		log.Info().Str("url", cfg.API.URL).Msg("questions from quiz api")
	default:
		src = memory.NewStaticLoader(demoExams(), demoQuestions())
		log.Warn().Msg("no question source configured, serving demo exam")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 5*time.Minute)
	var questions app.QuestionRepository
	var sessions app.SessionRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		w.closers = append(w.closers, func() { _ = client.Close() })
		questions = redisinfra.NewQuestionRepository(client, src, quizTTL, log)
		sessions = redisinfra.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		questions = memory.NewQuestionRepository(src, quizTTL)
		sessions = memory.NewSessionStore()
	}

	opts := app.ServiceOptions{
		Session: app.SessionOptions{
			Duration: config.TTLDuration(cfg.Quiz.Duration, app.DefaultDuration),
			Logger:   log,
		},
		DropBlankOptions: cfg.Quiz.DropBlankOptions,
	}
	if rec != nil {
		opts.Observer = rec
	}
	w.service = app.NewQuizService(sessions, questions, src, opts)
	return w, nil
}

func demoExams() []domain.Exam {
	return []domain.Exam{
		{ID: "demo", Title: "JavaScript Fundamentals", Description: "A short warm-up exam."},
	}
}

func demoQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"demo": {
			{ID: "1", Text: "Which keyword declares a block-scoped variable?", RawOptions: "var\nlet\nfunction", CorrectOptionIndex: 1},
			{ID: "2", Text: "What does typeof null return?", RawOptions: "\"null\"\n\"object\"\n\"undefined\"", CorrectOptionIndex: 1},
			{ID: "3", Text: "Which method adds an element to the end of an array?", RawOptions: "push\nshift\nsplice", CorrectOptionIndex: 0},
		},
	}
}
