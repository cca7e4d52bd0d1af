package memory

import (
	"context"
	"sync"

	"lesson-progress-engine/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.QuizEngine
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.QuizEngine),
	}
}

func (s *SessionStore) GetOrCreate(_ context.Context, sessionID string, create func() (*app.QuizEngine, error)) (*app.QuizEngine, error) {
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
	return engine, nil
}

func (s *SessionStore) Get(sessionID string) (*app.QuizEngine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engine, ok := s.sessions[sessionID]
	return engine, ok
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
