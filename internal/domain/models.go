package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is an identifier the quiz API may send either as a JSON number or a string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Exam is a listing entry returned by GET /exams.
type Exam struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Question is a raw question record as fetched from the quiz API.
// RawOptions holds every option in one string separated by line breaks.
type Question struct {
	ID                 ID     `json:"id"`
	Text               string `json:"question"`
	RawOptions         string `json:"options"`
	CorrectOptionIndex int    `json:"correctAnswer"`
}

// UnmarshalJSON accepts options either as the delimited string or as an
// array of strings, which is joined with the same delimiter.
func (q *Question) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID                 ID              `json:"id"`
		Text               string          `json:"question"`
		Options            json.RawMessage `json:"options"`
		CorrectOptionIndex int             `json:"correctAnswer"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	q.ID = wire.ID
	q.Text = wire.Text
	q.CorrectOptionIndex = wire.CorrectOptionIndex
	q.RawOptions = ""

	opts := bytes.TrimSpace(wire.Options)
	switch {
	case len(opts) == 0 || bytes.Equal(opts, []byte("null")):
	case opts[0] == '[':
		var list []string
		if err := json.Unmarshal(opts, &list); err != nil {
			return fmt.Errorf("question %s options: %w", wire.ID, err)
		}
		q.RawOptions = strings.Join(list, OptionDelimiter)
	default:
		if err := json.Unmarshal(opts, &q.RawOptions); err != nil {
			return fmt.Errorf("question %s options: %w", wire.ID, err)
		}
	}
	return nil
}

// OptionDelimiter separates options inside Question.RawOptions.
const OptionDelimiter = "\n"

// Phase is the coarse lifecycle state of a quiz session.
type Phase string

const (
	PhaseWelcome  Phase = "welcome"
	PhaseActive   Phase = "active"
	PhaseFinished Phase = "finished"
)

// ScoreReport is derived from a session's answers; it is never mutated.
type ScoreReport struct {
	CorrectCount   int    `json:"correctCount"`
	TotalQuestions int    `json:"totalQuestions"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	PerQuestion    []bool `json:"perQuestionCorrectness"`
	TimedOut       bool   `json:"timedOut"`
}
