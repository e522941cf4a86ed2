package app

import (
	"sync"
	"time"

	"exam-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

// EventType names a session notification.
type EventType string

const (
	EventStarted  EventType = "started"
	EventTick     EventType = "tick"
	EventFinished EventType = "finished"
	EventReset    EventType = "reset"
	EventHome     EventType = "home"
)

// Event is pushed to subscribers whenever the session changes on its own
// (timer) or leaves a phase. Answers and Store are captured together with
// the snapshot, so a finished event stays consistent after a retake.
type Event struct {
	Type     EventType      `json:"type"`
	Snapshot Snapshot       `json:"snapshot"`
	Answers  map[int]int    `json:"-"`
	Store    *QuestionStore `json:"-"`
}

// QuestionView is the display form of the current question.
type QuestionView struct {
	ID      domain.ID `json:"id"`
	Text    string    `json:"question"`
	Options []string  `json:"options"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	SessionID        string              `json:"sessionId"`
	Phase            domain.Phase        `json:"phase"`
	CurrentIndex     int                 `json:"currentIndex"`
	TotalQuestions   int                 `json:"totalQuestions"`
	Question         *QuestionView       `json:"question,omitempty"`
	SelectedAnswer   *int                `json:"selectedAnswer,omitempty"`
	Answered         int                 `json:"answered"`
	RemainingSeconds int                 `json:"remainingSeconds"`
	ElapsedSeconds   int                 `json:"elapsedSeconds"`
	IsFirst          bool                `json:"isFirstQuestion"`
	IsLast           bool                `json:"isLastQuestion"`
	CanAdvance       bool                `json:"canAdvance"`
	CanFinish        bool                `json:"canFinish"`
	Report           *domain.ScoreReport `json:"report,omitempty"`
}

// SessionOptions configure a Session. Zero values fall back to production defaults.
type SessionOptions struct {
	Duration time.Duration
	Ticks    TickSource
	Clock    func() time.Time
	Logger   zerolog.Logger
	Observer Observer
}

// Session is the state machine of one quiz attempt: welcome, active, finished.
// Navigation misuse is a no-op reported through the boolean results.
type Session struct {
	id    string
	now   func() time.Time
	timer *Timer
	log   zerolog.Logger
	obs   Observer

	mu          sync.RWMutex
	store       *QuestionStore
	phase       domain.Phase
	current     int
	answers     map[int]int
	startedAt   time.Time
	elapsed     int
	report      *domain.ScoreReport
	attempt     uint64
	closed      bool
	subscribers map[chan Event]struct{}
}

// NewSession creates a session in the welcome phase over the given questions.
func NewSession(id string, store *QuestionStore, opts SessionOptions) *Session {
	if opts.Duration == 0 {
		opts.Duration = DefaultDuration
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Session{
		id:          id,
		now:         opts.Clock,
		timer:       NewTimer(opts.Duration, opts.Ticks),
		log:         opts.Logger.With().Str("session_id", id).Logger(),
		obs:         opts.Observer,
		store:       store,
		phase:       domain.PhaseWelcome,
		answers:     make(map[int]int),
		subscribers: make(map[chan Event]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetQuestions replaces the question store. Only allowed in the welcome
// phase, which covers questions arriving after the session was created.
func (s *Session) SetQuestions(store *QuestionStore) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != domain.PhaseWelcome {
		return false
	}
	s.store = store
	return true
}

// Start enters the active phase. It fails with domain.ErrNoQuestions when
// the store is empty and reports false when called outside the welcome phase.
func (s *Session) Start() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != domain.PhaseWelcome {
		return false, nil
	}
	if s.store.Len() == 0 {
		return false, domain.ErrNoQuestions
	}

	s.attempt++
	attempt := s.attempt
	s.phase = domain.PhaseActive
	s.current = 0
	s.answers = make(map[int]int)
	s.startedAt = s.now()
	s.elapsed = 0
	s.report = nil
	s.timer.Start(
		func(int) { s.onTick(attempt) },
		func() { s.onExpire(attempt) },
	)

	s.log.Info().Int("questions", s.store.Len()).Int("duration", s.timer.Total()).Msg("quiz started")
	s.obs.QuizStarted()
	s.broadcastLocked(EventStarted)
	return true, nil
}

// SelectAnswer records or overwrites the answer for the current question.
func (s *Session) SelectAnswer(option int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive {
		return false
	}
	q, ok := s.store.At(s.current)
	if !ok || !q.ValidAnswer(option) {
		return false
	}
	s.answers[s.current] = option
	return true
}

// Next advances to the following question once the current one is answered.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canAdvanceLocked() {
		return false
	}
	s.current++
	return true
}

// Previous moves back one question; always allowed except at the first.
func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive || s.current == 0 {
		return false
	}
	s.current--
	return true
}

// Finish ends the attempt from the active phase regardless of answers.
func (s *Session) Finish() (domain.ScoreReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive {
		return domain.ScoreReport{}, false
	}
	return s.finishLocked(false), true
}

// Submit is the user's finish action. Like Next, it requires the current
// question to be answered; timer expiry bypasses that gate.
func (s *Session) Submit() (domain.ScoreReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canFinishLocked() {
		return domain.ScoreReport{}, false
	}
	return s.finishLocked(false), true
}

// Retake discards the attempt and returns to the welcome phase.
func (s *Session) Retake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.broadcastLocked(EventReset)
}

// BackToHome discards the attempt like Retake and additionally tells
// subscribers to navigate to the exam listing.
func (s *Session) BackToHome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.broadcastLocked(EventHome)
}

// Close tears the session down: the timer is released and every subscriber
// channel is closed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.attempt++
	s.timer.Stop()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Store returns the questions the session runs over.
func (s *Session) Store() *QuestionStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Answers returns a copy of the recorded answers keyed by question index.
func (s *Session) Answers() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answersLocked()
}

func (s *Session) answersLocked() map[int]int {
	out := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Report returns the score report once the session is finished, together
// with the answers it was computed from.
func (s *Session) Report() (domain.ScoreReport, map[int]int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return domain.ScoreReport{}, nil, false
	}
	return *s.report, s.answersLocked(), true
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) onTick(attempt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != attempt || s.phase != domain.PhaseActive {
		return
	}
	s.broadcastLocked(EventTick)
}

func (s *Session) onExpire(attempt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != attempt || s.phase != domain.PhaseActive {
		return
	}
	s.finishLocked(true)
}

func (s *Session) canAdvanceLocked() bool {
	return s.canFinishLocked() && s.current < s.store.Len()-1
}

func (s *Session) canFinishLocked() bool {
	if s.phase != domain.PhaseActive {
		return false
	}
	_, answered := s.answers[s.current]
	return answered
}

func (s *Session) finishLocked(timedOut bool) domain.ScoreReport {
	s.timer.Stop()
	s.phase = domain.PhaseFinished
	s.elapsed = s.elapsedLocked()

	report := Score(s.store.Questions(), s.answers, s.elapsed)
	report.TimedOut = timedOut
	s.report = &report

	s.log.Info().
		Int("correct", report.CorrectCount).
		Int("total", report.TotalQuestions).
		Int("elapsed", report.ElapsedSeconds).
		Bool("timed_out", timedOut).
		Msg("quiz finished")
	s.obs.QuizFinished(report)
	s.broadcastLocked(EventFinished)
	return report
}

func (s *Session) resetLocked() {
	s.attempt++
	s.timer.Reset()
	s.phase = domain.PhaseWelcome
	s.current = 0
	s.answers = make(map[int]int)
	s.startedAt = time.Time{}
	s.elapsed = 0
	s.report = nil
}

func (s *Session) elapsedLocked() int {
	secs := int(s.now().Sub(s.startedAt) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:        s.id,
		Phase:            s.phase,
		CurrentIndex:     s.current,
		TotalQuestions:   s.store.Len(),
		Answered:         len(s.answers),
		RemainingSeconds: s.timer.Remaining(),
		ElapsedSeconds:   s.elapsed,
		IsFirst:          s.current == 0,
		IsLast:           s.current == s.store.Len()-1,
		CanAdvance:       s.canAdvanceLocked(),
		CanFinish:        s.canFinishLocked(),
	}
	if s.phase == domain.PhaseActive {
		snap.ElapsedSeconds = s.elapsedLocked()
		if q, ok := s.store.At(s.current); ok {
			options := make([]string, len(q.Options))
			copy(options, q.Options)
			snap.Question = &QuestionView{ID: q.ID, Text: q.Text, Options: options}
		}
		if answer, ok := s.answers[s.current]; ok {
			snap.SelectedAnswer = &answer
		}
	}
	if s.report != nil {
		report := *s.report
		snap.Report = &report
	}
	return snap
}

func (s *Session) broadcastLocked(typ EventType) {
	ev := Event{Type: typ, Snapshot: s.snapshotLocked(), Answers: s.answersLocked(), Store: s.store}
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// drop the oldest pending event so a slow reader never blocks the session
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
