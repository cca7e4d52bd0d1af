package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"lesson-progress-engine/internal/domain"
)

// LessonLoader fetches lesson content from a backing source (file, database).
type LessonLoader interface {
	LoadLessons(ctx context.Context) ([]domain.Lesson, error)
}

// LessonRepository caches the lesson catalog in Redis as one JSON value and
// falls back to a loader on cache miss.
//
//	SET lessons:catalog <json> EX <ttl>
type LessonRepository struct {
	client *redis.Client
	loader LessonLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

const catalogKey = "lessons:catalog"

func NewLessonRepository(client *redis.Client, loader LessonLoader, ttl time.Duration) *LessonRepository {
	return &LessonRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *LessonRepository) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	if lessons, ok := r.fromCache(ctx); ok {
		return lessons, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if lessons, ok := r.fromCache(ctx); ok {
			return lessons, nil
		}

		lessons, err := r.loader.LoadLessons(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(lessons); err == nil {
			// best-effort: a failed cache write only costs a reload
			_ = r.client.Set(ctx, catalogKey, data, r.ttlWithJitter()).Err()
		}
		return lessons, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Lesson), nil
}

// Invalidate removes the cached catalog.
func (r *LessonRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, catalogKey).Err()
}

func (r *LessonRepository) fromCache(ctx context.Context) ([]domain.Lesson, bool) {
	raw, err := r.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		return nil, false
	}
	var lessons []domain.Lesson
	if err := json.Unmarshal(raw, &lessons); err != nil {
		return nil, false
	}
	return lessons, true
}

func (r *LessonRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
