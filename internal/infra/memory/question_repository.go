package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionRepository caches question sets with TTL to avoid refetching on every session.
type QuestionRepository struct {
	loader app.QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader app.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestions),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, examID string) ([]domain.Question, error) {
	if qs, ok := r.lookup(examID); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(cacheKey(examID), func() (interface{}, error) {
		if qs, ok := r.lookup(examID); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadQuestions(ctx, examID)
		if err != nil {
			return nil, err
		}
		if r.ttl > 0 {
			r.mu.Lock()
			r.cache[cacheKey(examID)] = cachedQuestions{
				questions: qs,
				expiresAt: r.clock().Add(r.ttlWithJitter()),
			}
			r.mu.Unlock()
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return copyQuestions(result.([]domain.Question)), nil
}

// Invalidate drops the cached set of one exam.
func (r *QuestionRepository) Invalidate(_ context.Context, examID string) error {
	r.mu.Lock()
	delete(r.cache, cacheKey(examID))
	r.mu.Unlock()
	return nil
}

func (r *QuestionRepository) lookup(examID string) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[cacheKey(examID)]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return copyQuestions(entry.questions), true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func cacheKey(examID string) string {
	if examID == "" {
		return "*"
	}
	return examID
}

func copyQuestions(qs []domain.Question) []domain.Question {
	return append([]domain.Question(nil), qs...)
}
