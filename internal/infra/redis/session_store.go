package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"lesson-progress-engine/internal/app"
	"lesson-progress-engine/internal/platform/logger"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Quiz engines stay in process memory; Redis carries one marker per open
// session, holding its lesson id, so other tooling can see which quizzes are
// in progress.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	log      *logger.Logger
	mu       sync.RWMutex
	sessions map[string]*app.QuizEngine
}

func NewSessionStore(client *redis.Client, ttl time.Duration, log *logger.Logger) *SessionStore {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		log:      log,
		sessions: make(map[string]*app.QuizEngine),
	}
}

func (s *SessionStore) GetOrCreate(ctx context.Context, sessionID string, create func() (*app.QuizEngine, error)) (*app.QuizEngine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if engine, ok := s.sessions[sessionID]; ok {
		return engine, nil
	}
	engine, err := create()
	if err != nil {
		return nil, err
	}
	s.sessions[sessionID] = engine
	// the marker is advisory; the engine is usable without it
	if err := s.client.Set(ctx, s.key(sessionID), engine.LessonID(), s.ttl).Err(); err != nil {
		s.log.Warn("session marker write failed", "session_id", sessionID, "error", err)
	}
	return engine, nil
}

func (s *SessionStore) Get(sessionID string) (*app.QuizEngine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engine, ok := s.sessions[sessionID]
	return engine, ok
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return
	}
	delete(s.sessions, sessionID)
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		s.log.Warn("session marker delete failed", "session_id", sessionID, "error", err)
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
