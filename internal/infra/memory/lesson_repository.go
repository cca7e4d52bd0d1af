package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"lesson-progress-engine/internal/domain"
)

// LessonLoader fetches lesson content from a backing source (file, database).
type LessonLoader interface {
	LoadLessons(ctx context.Context) ([]domain.Lesson, error)
}

// LessonRepository caches the lesson catalog with a TTL to avoid re-reading
// the source on every request.
type LessonRepository struct {
	loader LessonLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	lessons   []domain.Lesson
	expiresAt time.Time
}

const catalogKey = "catalog"

func NewLessonRepository(loader LessonLoader, ttl time.Duration) *LessonRepository {
	return &LessonRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *LessonRepository) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	if lessons, ok := r.cached(r.clock()); ok {
		return lessons, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		now := r.clock()
		if lessons, ok := r.cached(now); ok {
			return lessons, nil
		}

		lessons, err := r.loader.LoadLessons(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.lessons = lessons
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return lessons, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Lesson), nil
}

// Invalidate drops the cached catalog so the next call reloads it.
func (r *LessonRepository) Invalidate() {
	r.mu.Lock()
	r.lessons = nil
	r.expiresAt = time.Time{}
	r.mu.Unlock()
}

func (r *LessonRepository) cached(now time.Time) ([]domain.Lesson, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lessons != nil && r.expiresAt.After(now) {
		return r.lessons, true
	}
	return nil, false
}

func (r *LessonRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticLessonLoader serves a fixed lesson list (useful for tests/demos).
type StaticLessonLoader struct {
	lessons []domain.Lesson
}

func NewStaticLessonLoader(lessons []domain.Lesson) *StaticLessonLoader {
	return &StaticLessonLoader{lessons: lessons}
}

func (l *StaticLessonLoader) LoadLessons(_ context.Context) ([]domain.Lesson, error) {
	if l.lessons == nil {
		return nil, domain.ErrContentNotFound
	}
	return l.lessons, nil
}
