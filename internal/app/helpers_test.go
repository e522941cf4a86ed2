package app_test

import (
	"sync"
	"testing"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

// manualTicks hands out a fresh channel per timer run so tests drive the
// countdown one tick at a time.
type manualTicks struct {
	mu    sync.Mutex
	chans []chan time.Time
}

func (m *manualTicks) source() (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	m.mu.Lock()
	m.chans = append(m.chans, ch)
	m.mu.Unlock()
	return ch, func() {}
}

func (m *manualTicks) latest(t *testing.T) chan time.Time {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chans) == 0 {
		t.Fatalf("timer never started")
	}
	return m.chans[len(m.chans)-1]
}

// tick delivers n ticks to the latest run, failing if one is not consumed.
func (m *manualTicks) tick(t *testing.T, n int) {
	t.Helper()
	ch := m.latest(t)
	for i := 0; i < n; i++ {
		select {
		case ch <- time.Now():
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d not consumed", i+1)
		}
	}
}

// offer reports whether a single tick was consumed within a short window.
func offer(ch chan time.Time) bool {
	select {
	case ch <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "1", Text: "What is 2 + 2?", RawOptions: "4\n3\n5", CorrectOptionIndex: 0},
		{ID: "2", Text: "Which keyword declares a constant?", RawOptions: "var\nlet\nconst", CorrectOptionIndex: 1},
		{ID: "3", Text: "typeof null?", RawOptions: "null\nobject\nundefined", CorrectOptionIndex: 1},
	}
}

func newTestSession(t *testing.T, questions []domain.Question, d time.Duration) (*app.Session, *manualTicks, *fakeClock) {
	t.Helper()
	ticks := &manualTicks{}
	clock := newFakeClock()
	store := app.NewQuestionStore(questions, app.StoreOptions{Logger: zerolog.Nop()})
	session := app.NewSession("s-1", store, app.SessionOptions{
		Duration: d,
		Ticks:    ticks.source,
		Clock:    clock.Now,
		Logger:   zerolog.Nop(),
	})
	t.Cleanup(session.Close)
	return session, ticks, clock
}

func waitEvent(t *testing.T, ch <-chan app.Event, typ app.EventType) app.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}
