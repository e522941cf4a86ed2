package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"exam-quiz-service/internal/domain"
)

// FetchObserver is notified after every request to the quiz API.
type FetchObserver interface {
	ObserveFetch(endpoint string, d time.Duration, err error)
}

// Client reads exams and questions from the remote quiz API:
//
//	GET /exams
//	GET /questions
//	GET /question/exam/{examId}
type Client struct {
	baseURL  string
	http     *http.Client
	observer FetchObserver
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithObserver reports fetch outcomes, e.g. to metrics.
func WithObserver(o FetchObserver) Option {
	return func(cl *Client) { cl.observer = o }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListExams fetches the exam listing.
func (c *Client) ListExams(ctx context.Context) ([]domain.Exam, error) {
	var exams []domain.Exam
	if err := c.get(ctx, "exams", "/exams", &exams); err != nil {
		return nil, err
	}
	return exams, nil
}

// FetchQuestions fetches every question regardless of exam.
func (c *Client) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	var qs []domain.Question
	if err := c.get(ctx, "questions", "/questions", &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// FetchExamQuestions fetches the questions scoped to one exam.
func (c *Client) FetchExamQuestions(ctx context.Context, examID string) ([]domain.Question, error) {
	var qs []domain.Question
	if err := c.get(ctx, "exam_questions", "/question/exam/"+url.PathEscape(examID), &qs); err != nil {
		var fe *domain.FetchError
		if errors.As(err, &fe) && fe.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", domain.ErrExamNotFound, err)
		}
		return nil, err
	}
	return qs, nil
}

// LoadQuestions implements app.QuestionLoader; an empty exam id loads every question.
func (c *Client) LoadQuestions(ctx context.Context, examID string) ([]domain.Question, error) {
	if examID == "" {
		return c.FetchQuestions(ctx)
	}
	return c.FetchExamQuestions(ctx, examID)
}

func (c *Client) get(ctx context.Context, endpoint, path string, dst any) (err error) {
	start := time.Now()
	if c.observer != nil {
		defer func() { c.observer.ObserveFetch(endpoint, time.Since(start), err) }()
	}

	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrFetch, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.FetchError{URL: target, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrFetch, target, err)
	}
	return nil
}
