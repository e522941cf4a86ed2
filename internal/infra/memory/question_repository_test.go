package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticLoader(sampleExams(), sampleQuestions())}
	repo := NewQuestionRepository(loader, time.Minute)

	qs, err := repo.GetQuestions(context.Background(), "exam-1")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(qs) != 2 || loader.calls != 1 {
		t.Fatalf("expected 2 questions from one load, got %d questions, %d calls", len(qs), loader.calls)
	}

	if _, err := repo.GetQuestions(context.Background(), "exam-1"); err != nil {
		t.Fatalf("get questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	if err := repo.Invalidate(context.Background(), "exam-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := repo.GetQuestions(context.Background(), "exam-1"); err != nil {
		t.Fatalf("get questions 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticLoader(sampleExams(), sampleQuestions())}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuestions(context.Background(), "")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuestions(context.Background(), "")
	if loader.calls != 2 {
		t.Fatalf("expected expired entry to reload, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticLoader(nil, nil)}
	repo := NewQuestionRepository(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := repo.GetQuestions(context.Background(), "missing"); !errors.Is(err, domain.ErrExamNotFound) {
			t.Fatalf("expected ErrExamNotFound, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("errors must not be cached, loader calls %d", loader.calls)
	}
}

func TestStaticLoaderAllQuestions(t *testing.T) {
	loader := NewStaticLoader(sampleExams(), sampleQuestions())
	all, err := loader.LoadQuestions(context.Background(), "")
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(all) != 3 || all[0].ID != "1" || all[2].ID != "3" {
		t.Fatalf("unexpected questions %+v", all)
	}
	exams, _ := loader.ListExams(context.Background())
	if len(exams) != 2 {
		t.Fatalf("expected 2 exams, got %d", len(exams))
	}
}

type countingLoader struct {
	app.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, examID string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, examID)
}

func sampleExams() []domain.Exam {
	return []domain.Exam{
		{ID: "exam-1", Title: "JavaScript Fundamentals", Description: "Variables, functions and the DOM."},
		{ID: "exam-2", Title: "Go Basics", Description: "Types and goroutines."},
	}
}

func sampleQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"exam-1": {
			{ID: "1", Text: "What is 2 + 2?", RawOptions: "3\n4\n5", CorrectOptionIndex: 1},
			{ID: "2", Text: "typeof null?", RawOptions: "null\nobject", CorrectOptionIndex: 1},
		},
		"exam-2": {
			{ID: "3", Text: "Zero value of int?", RawOptions: "0\nnil", CorrectOptionIndex: 0},
		},
	}
}
