package app

import "exam-quiz-service/internal/domain"

// Score compares recorded answers against each question's correct option.
// Unanswered questions count as incorrect; answer keys outside the question
// range are ignored.
func Score(questions []domain.Question, answers map[int]int, elapsedSeconds int) domain.ScoreReport {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	report := domain.ScoreReport{
		TotalQuestions: len(questions),
		ElapsedSeconds: elapsedSeconds,
		PerQuestion:    make([]bool, len(questions)),
	}
	for i, q := range questions {
		answer, ok := answers[i]
		if ok && answer == q.CorrectOptionIndex {
			report.PerQuestion[i] = true
			report.CorrectCount++
		}
	}
	return report
}
