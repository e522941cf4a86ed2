// Package report turns a finished session's ScoreReport into the results
// page: percentage, grade, elapsed time and a per-question review.
package report

import (
	"fmt"
	"io"
	"math"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
)

// Grade is the letter grade band a percentage falls into.
type Grade struct {
	Letter  string `json:"grade"`
	Message string `json:"message"`
}

var gradeBands = []struct {
	min   int
	grade Grade
}{
	{90, Grade{"A+", "Excellent!"}},
	{80, Grade{"A", "Great job!"}},
	{70, Grade{"B", "Good work!"}},
	{60, Grade{"C", "Not bad!"}},
}

// GradeFor maps a percentage to its grade band.
func GradeFor(percent int) Grade {
	for _, band := range gradeBands {
		if percent >= band.min {
			return band.grade
		}
	}
	return Grade{"F", "Keep practicing!"}
}

// Percentage is the rounded share of correct answers; zero when there are no questions.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// FormatElapsed renders seconds as m:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ReviewItem is one row of the per-question breakdown.
type ReviewItem struct {
	Index         int       `json:"index"`
	QuestionID    domain.ID `json:"questionId"`
	Question      string    `json:"question"`
	Answered      bool      `json:"answered"`
	UserAnswer    string    `json:"userAnswer,omitempty"`
	CorrectAnswer string    `json:"correctAnswer"`
	Correct       bool      `json:"correct"`
}

// Summary is the rendered form of a ScoreReport.
type Summary struct {
	Correct    int          `json:"correct"`
	Incorrect  int          `json:"incorrect"`
	Total      int          `json:"total"`
	Percentage int          `json:"percentage"`
	Grade      Grade        `json:"grade"`
	Elapsed    string       `json:"elapsed"`
	TimedOut   bool         `json:"timedOut"`
	Review     []ReviewItem `json:"review"`
}

// Build assembles the results summary for a finished attempt.
func Build(store *app.QuestionStore, answers map[int]int, r domain.ScoreReport) Summary {
	percent := Percentage(r.CorrectCount, r.TotalQuestions)
	summary := Summary{
		Correct:    r.CorrectCount,
		Incorrect:  r.TotalQuestions - r.CorrectCount,
		Total:      r.TotalQuestions,
		Percentage: percent,
		Grade:      GradeFor(percent),
		Elapsed:    FormatElapsed(r.ElapsedSeconds),
		TimedOut:   r.TimedOut,
		Review:     make([]ReviewItem, 0, store.Len()),
	}
	for i, q := range store.Prepared() {
		item := ReviewItem{
			Index:         i,
			QuestionID:    q.ID,
			Question:      q.Text,
			CorrectAnswer: optionText(q, q.CorrectOptionIndex),
		}
		if i < len(r.PerQuestion) {
			item.Correct = r.PerQuestion[i]
		}
		if answer, ok := answers[i]; ok {
			item.Answered = true
			item.UserAnswer = optionText(q, answer)
		}
		summary.Review = append(summary.Review, item)
	}
	return summary
}

// Notice is the short completion message shown when a quiz ends.
func Notice(r domain.ScoreReport) string {
	return fmt.Sprintf("You scored %d out of %d questions.", r.CorrectCount, r.TotalQuestions)
}

// WriteText renders the summary as a plain-text results page.
func WriteText(w io.Writer, s Summary) error {
	heading := "Quiz Complete!"
	if s.TimedOut {
		heading = "Time's up!"
	}
	if _, err := fmt.Fprintf(w, "%s %s\n\n%d%%  Grade: %s\nCorrect: %d  Incorrect: %d  Time: %s\n\n",
		heading, s.Grade.Message, s.Percentage, s.Grade.Letter, s.Correct, s.Incorrect, s.Elapsed); err != nil {
		return err
	}
	for _, item := range s.Review {
		mark := "✗"
		if item.Correct {
			mark = "✓"
		}
		if _, err := fmt.Fprintf(w, "%s %d. %s\n", mark, item.Index+1, item.Question); err != nil {
			return err
		}
		answer := item.UserAnswer
		if !item.Answered {
			answer = "(no answer)"
		}
		if _, err := fmt.Fprintf(w, "    your answer: %s\n", answer); err != nil {
			return err
		}
		if !item.Correct {
			if _, err := fmt.Fprintf(w, "    correct answer: %s\n", item.CorrectAnswer); err != nil {
				return err
			}
		}
	}
	return nil
}

func optionText(q app.PreparedQuestion, idx int) string {
	if !q.ValidAnswer(idx) {
		return ""
	}
	return q.Options[idx]
}
