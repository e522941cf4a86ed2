package app_test

import (
	"reflect"
	"testing"

	"exam-quiz-service/internal/app"
)

func TestScoreAllCorrect(t *testing.T) {
	questions := sampleQuestions()
	answers := map[int]int{}
	for i, q := range questions {
		answers[i] = q.CorrectOptionIndex
	}
	report := app.Score(questions, answers, 42)
	if report.CorrectCount != report.TotalQuestions || report.TotalQuestions != 3 {
		t.Fatalf("expected all correct, got %+v", report)
	}
	if report.ElapsedSeconds != 42 {
		t.Fatalf("expected elapsed 42, got %d", report.ElapsedSeconds)
	}
}

func TestScoreEmptyAnswers(t *testing.T) {
	report := app.Score(sampleQuestions(), map[int]int{}, 0)
	if report.CorrectCount != 0 {
		t.Fatalf("expected zero correct, got %d", report.CorrectCount)
	}
	if !reflect.DeepEqual(report.PerQuestion, []bool{false, false, false}) {
		t.Fatalf("unexpected breakdown %v", report.PerQuestion)
	}
}

func TestScoreToleratesRaggedAnswers(t *testing.T) {
	report := app.Score(sampleQuestions(), map[int]int{0: 0, 7: 1, -1: 0}, -5)
	if report.CorrectCount != 1 {
		t.Fatalf("expected 1 correct, got %d", report.CorrectCount)
	}
	if !reflect.DeepEqual(report.PerQuestion, []bool{true, false, false}) {
		t.Fatalf("unexpected breakdown %v", report.PerQuestion)
	}
	if report.ElapsedSeconds != 0 {
		t.Fatalf("expected negative elapsed clamped to 0, got %d", report.ElapsedSeconds)
	}
	if got := app.Score(nil, nil, 0); got.TotalQuestions != 0 || got.CorrectCount != 0 {
		t.Fatalf("expected empty report, got %+v", got)
	}
}

func TestScoreMixedAnswers(t *testing.T) {
	report := app.Score(sampleQuestions(), map[int]int{0: 0, 1: 2, 2: 1}, 10)
	if report.CorrectCount != 2 || report.TotalQuestions != 3 {
		t.Fatalf("expected 2 of 3, got %+v", report)
	}
}
