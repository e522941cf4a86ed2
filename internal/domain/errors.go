package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoQuestions is returned when a quiz is started with an empty question store.
	ErrNoQuestions = errors.New("no questions available")
	// ErrSessionNotFound is returned when a quiz session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrExamNotFound indicates the exam or its questions could not be loaded.
	ErrExamNotFound = errors.New("exam not found")
	// ErrFetch marks failures talking to the remote quiz API.
	ErrFetch = errors.New("fetch failed")
)

// FetchError reports a non-2xx response from the quiz API.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

// Is lets errors.Is(err, ErrFetch) match any FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}
