package memory

import (
	"context"
	"sort"

	"exam-quiz-service/internal/domain"
)

// StaticLoader serves exams and questions from in-memory data (useful for tests/demos).
type StaticLoader struct {
	exams     []domain.Exam
	questions map[string][]domain.Question
}

func NewStaticLoader(exams []domain.Exam, questions map[string][]domain.Question) *StaticLoader {
	return &StaticLoader{exams: exams, questions: questions}
}

// LoadQuestions returns the questions of one exam, or every question when examID is empty.
func (l *StaticLoader) LoadQuestions(_ context.Context, examID string) ([]domain.Question, error) {
	if examID != "" {
		qs, ok := l.questions[examID]
		if !ok {
			return nil, domain.ErrExamNotFound
		}
		return append([]domain.Question(nil), qs...), nil
	}

	keys := make([]string, 0, len(l.questions))
	for k := range l.questions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var all []domain.Question
	for _, k := range keys {
		all = append(all, l.questions[k]...)
	}
	return all, nil
}

func (l *StaticLoader) ListExams(_ context.Context) ([]domain.Exam, error) {
	return append([]domain.Exam(nil), l.exams...), nil
}
