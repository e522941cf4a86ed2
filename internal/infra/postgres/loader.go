package postgres

import (
	"context"
	"fmt"

	"exam-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Loader reads exams and questions from Postgres. It is an alternative
// source to the remote quiz API with the same shapes.
type Loader struct {
	pool *pgxpool.Pool
}

func NewLoader(pool *pgxpool.Pool) *Loader {
	return &Loader{pool: pool}
}

func (l *Loader) ListExams(ctx context.Context) ([]domain.Exam, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, title, description FROM exams ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	var exams []domain.Exam
	for rows.Next() {
		var e domain.Exam
		var id string
		if err := rows.Scan(&id, &e.Title, &e.Description); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		e.ID = domain.ID(id)
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// LoadQuestions returns one exam's questions in position order, or every
// question when examID is empty.
func (l *Loader) LoadQuestions(ctx context.Context, examID string) ([]domain.Question, error) {
	query := `SELECT id, question, options, correct_answer FROM questions ORDER BY exam_id, position, id`
	args := []interface{}{}
	if examID != "" {
		var exists bool
		if err := l.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM exams WHERE id=$1)`, examID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("load exam: %w", err)
		}
		if !exists {
			return nil, domain.ErrExamNotFound
		}
		query = `SELECT id, question, options, correct_answer FROM questions WHERE exam_id=$1 ORDER BY position, id`
		args = append(args, examID)
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var qs []domain.Question
	for rows.Next() {
		var q domain.Question
		var id string
		if err := rows.Scan(&id, &q.Text, &q.RawOptions, &q.CorrectOptionIndex); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.ID = domain.ID(id)
		qs = append(qs, q)
	}
	return qs, rows.Err()
}
