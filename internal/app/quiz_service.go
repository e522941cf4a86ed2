package app

import (
	"context"
	"fmt"

	"exam-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// QuestionRepository loads the questions of an exam; an empty exam id means every question.
type QuestionRepository interface {
	GetQuestions(ctx context.Context, examID string) ([]domain.Question, error)
}

// QuestionInvalidator is implemented by caching repositories that can drop
// one exam's cached set.
type QuestionInvalidator interface {
	Invalidate(ctx context.Context, examID string) error
}

// QuestionLoader fetches questions from a backing source (remote API, Postgres, static data).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, examID string) ([]domain.Question, error)
}

// ExamCatalog lists the exams a user can pick from.
type ExamCatalog interface {
	ListExams(ctx context.Context) ([]domain.Exam, error)
}

// Observer is told about session lifecycle changes; metrics hang off it.
type Observer interface {
	SessionOpened()
	SessionClosed()
	QuizStarted()
	QuizFinished(report domain.ScoreReport)
}

type nopObserver struct{}

func (nopObserver) SessionOpened() {}
func (nopObserver) SessionClosed() {}
func (nopObserver) QuizStarted() {}
func (nopObserver) QuizFinished(domain.ScoreReport) {}

// ServiceOptions configure a QuizService.
type ServiceOptions struct {
	Session          SessionOptions
	DropBlankOptions bool
	Observer         Observer
	NewID            func() string
}

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionRepository
	exams     ExamCatalog
	opts      ServiceOptions
	log       zerolog.Logger
}

func NewQuizService(store SessionRepository, questions QuestionRepository, exams ExamCatalog, opts ServiceOptions) *QuizService {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	opts.Session.Observer = opts.Observer
	return &QuizService{
		sessions:  store,
		questions: questions,
		exams:     exams,
		opts:      opts,
		log:       opts.Session.Logger.With().Str("component", "quiz_service").Logger(),
	}
}

// ListExams returns the exam listing.
func (s *QuizService) ListExams(ctx context.Context) ([]domain.Exam, error) {
	exams, err := s.exams.ListExams(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("list exams failed")
		return nil, err
	}
	return exams, nil
}

// Questions fetches and prepares the questions of an exam.
func (s *QuizService) Questions(ctx context.Context, examID string) (*QuestionStore, error) {
	raw, err := s.questions.GetQuestions(ctx, examID)
	if err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID).Msg("load questions failed")
		return nil, fmt.Errorf("load questions for exam %q: %w", examID, err)
	}
	return NewQuestionStore(raw, StoreOptions{
		DropBlankOptions: s.opts.DropBlankOptions,
		Logger:           s.log,
	}), nil
}

// Refresh drops any cached questions of the exam and loads them again,
// returning how many there are now.
func (s *QuizService) Refresh(ctx context.Context, examID string) (int, error) {
	if inv, ok := s.questions.(QuestionInvalidator); ok {
		if err := inv.Invalidate(ctx, examID); err != nil {
			return 0, fmt.Errorf("invalidate exam %q: %w", examID, err)
		}
	}
	store, err := s.Questions(ctx, examID)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("exam_id", examID).Int("questions", store.Len()).Msg("questions refreshed")
	return store.Len(), nil
}

// Open loads the exam's questions and registers a new session over them.
// Nothing is registered when loading fails.
func (s *QuizService) Open(ctx context.Context, examID string) (*Session, error) {
	store, err := s.Questions(ctx, examID)
	if err != nil {
		return nil, err
	}
	session := s.NewSession(store)
	s.log.Debug().Str("session_id", session.ID()).Str("exam_id", examID).Int("questions", store.Len()).Msg("session opened")
	return session, nil
}

// NewSession registers a session over an already prepared store, which may
// be empty while questions are still loading.
func (s *QuizService) NewSession(store *QuestionStore) *Session {
	session := NewSession(s.opts.NewID(), store, s.opts.Session)
	s.sessions.Add(session)
	s.opts.Observer.SessionOpened()
	return session
}

// Session looks up a live session.
func (s *QuizService) Session(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Touch refreshes the session's liveness in repositories that track it.
func (s *QuizService) Touch(ctx context.Context, id string) {
	toucher, ok := s.sessions.(interface {
		Touch(ctx context.Context, id string) error
	})
	if !ok {
		return
	}
	if err := toucher.Touch(ctx, id); err != nil {
		s.log.Debug().Err(err).Str("session_id", id).Msg("touch session failed")
	}
}

// Close tears a session down and forgets it.
func (s *QuizService) Close(id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(id)
	s.opts.Observer.SessionClosed()
}
