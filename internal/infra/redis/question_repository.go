package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// QuestionRepository caches fetched question sets in Redis and falls back to
// a loader on cache miss. Each set is stored as one JSON string:
//
//	SET quiz:questions:{examID} <json> EX ttl
type QuestionRepository struct {
	client *redis.Client
	loader app.QuestionLoader
	ttl    time.Duration
	log    zerolog.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader app.QuestionLoader, ttl time.Duration, log zerolog.Logger) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log.With().Str("component", "redis_question_cache").Logger(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, examID string) ([]domain.Question, error) {
	key := r.key(examID)
	if qs, ok := r.cached(ctx, key); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := r.cached(ctx, key); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadQuestions(ctx, examID)
		if err != nil {
			return nil, err
		}

		// a non-positive ttl disables caching
		if r.ttl <= 0 {
			return qs, nil
		}
		raw, err := json.Marshal(questionRecords(qs))
		if err == nil {
			err = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		if err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), result.([]domain.Question)...), nil
}

// Invalidate drops the cached set of one exam.
func (r *QuestionRepository) Invalidate(ctx context.Context, examID string) error {
	return r.client.Del(ctx, r.key(examID)).Err()
}

func (r *QuestionRepository) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}
	var records []questionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return nil, false
	}
	qs := make([]domain.Question, len(records))
	for i, rec := range records {
		qs[i] = domain.Question(rec)
	}
	return qs, true
}

func (r *QuestionRepository) key(examID string) string {
	if examID == "" {
		examID = "*"
	}
	return "quiz:questions:" + examID
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// questionRecord mirrors domain.Question without its API-facing JSON decoding.
type questionRecord struct {
	ID                 domain.ID `json:"id"`
	Text               string    `json:"text"`
	RawOptions         string    `json:"rawOptions"`
	CorrectOptionIndex int       `json:"correctOptionIndex"`
}

func questionRecords(qs []domain.Question) []questionRecord {
	out := make([]questionRecord, len(qs))
	for i, q := range qs {
		out[i] = questionRecord(q)
	}
	return out
}
