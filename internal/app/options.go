package app

import (
	"strings"

	"exam-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

// NormalizeOptions splits a raw option string on line breaks and trims each
// segment. Blank segments are kept, so the result always has exactly as many
// elements as strings.Split produces.
func NormalizeOptions(raw string) []string {
	parts := strings.Split(raw, domain.OptionDelimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// DropBlankOptions removes empty entries from normalized options.
func DropBlankOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		if opt != "" {
			out = append(out, opt)
		}
	}
	return out
}

// PreparedQuestion is a fetched question with its options normalized once at load time.
type PreparedQuestion struct {
	domain.Question
	Options []string
}

// ValidAnswer reports whether idx addresses one of the question's options.
func (q PreparedQuestion) ValidAnswer(idx int) bool {
	return idx >= 0 && idx < len(q.Options)
}

// QuestionStore holds the prepared questions of one exam session. It is
// immutable after construction.
type QuestionStore struct {
	questions []PreparedQuestion
}

// StoreOptions tweak how a QuestionStore prepares its questions.
type StoreOptions struct {
	DropBlankOptions bool
	Logger           zerolog.Logger
}

// NewQuestionStore normalizes every question exactly once.
func NewQuestionStore(questions []domain.Question, opts StoreOptions) *QuestionStore {
	prepared := make([]PreparedQuestion, 0, len(questions))
	for _, q := range questions {
		options := NormalizeOptions(q.RawOptions)
		if opts.DropBlankOptions {
			options = DropBlankOptions(options)
		}
		pq := PreparedQuestion{Question: q, Options: options}
		if !pq.ValidAnswer(q.CorrectOptionIndex) {
			opts.Logger.Warn().
				Str("question_id", q.ID.String()).
				Int("correct_index", q.CorrectOptionIndex).
				Int("options", len(options)).
				Msg("correct option index out of range")
		}
		prepared = append(prepared, pq)
	}
	return &QuestionStore{questions: prepared}
}

// Len returns the number of questions; a nil store is empty.
func (s *QuestionStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.questions)
}

// At returns the question at index i.
func (s *QuestionStore) At(i int) (PreparedQuestion, bool) {
	if i < 0 || i >= s.Len() {
		return PreparedQuestion{}, false
	}
	return s.questions[i], true
}

// Questions returns a copy of the raw question records in order.
func (s *QuestionStore) Questions() []domain.Question {
	out := make([]domain.Question, s.Len())
	for i := range out {
		out[i] = s.questions[i].Question
	}
	return out
}

// Prepared returns a copy of the prepared questions in order.
func (s *QuestionStore) Prepared() []PreparedQuestion {
	out := make([]PreparedQuestion, s.Len())
	if s != nil {
		copy(out, s.questions)
	}
	return out
}
