package app

import (
	"context"

	"lesson-progress-engine/internal/domain"
	"lesson-progress-engine/internal/platform/logger"
)

// LessonRepository loads lesson content (through a cache or directly).
type LessonRepository interface {
	ListLessons(ctx context.Context) ([]domain.Lesson, error)
}

// SessionRepository abstracts where open quiz sessions live. Sessions are
// keyed by a per-view session id, never by lesson, so two views of the same
// lesson never share an engine.
type SessionRepository interface {
	GetOrCreate(ctx context.Context, sessionID string, create func() (*QuizEngine, error)) (*QuizEngine, error)
	Get(sessionID string) (*QuizEngine, bool)
	Delete(ctx context.Context, sessionID string)
}

// LessonsResult is delivered once by LoadLessonsAsync.
type LessonsResult struct {
	Lessons []domain.Lesson
	Err     error
}

// LearningService contains the lesson and quiz use cases.
type LearningService struct {
	lessons  LessonRepository
	sessions SessionRepository
	progress *GamificationStore
	log      *logger.Logger
}

func NewLearningService(lessons LessonRepository, sessions SessionRepository, progress *GamificationStore, log *logger.Logger) *LearningService {
	if log == nil {
		log = logger.Nop()
	}
	return &LearningService{lessons: lessons, sessions: sessions, progress: progress, log: log}
}

func (s *LearningService) Lessons(ctx context.Context) ([]domain.Lesson, error) {
	return s.lessons.ListLessons(ctx)
}

// LoadLessonsAsync fetches lessons in the background. The channel receives
// exactly one result and is then closed; lessons are not ready before that.
func (s *LearningService) LoadLessonsAsync(ctx context.Context) <-chan LessonsResult {
	out := make(chan LessonsResult, 1)
	go func() {
		defer close(out)
		lessons, err := s.lessons.ListLessons(ctx)
		if err != nil {
			s.log.Warn("lesson load failed", "error", err)
		}
		out <- LessonsResult{Lessons: lessons, Err: err}
	}()
	return out
}

func (s *LearningService) Lesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	lessons, err := s.lessons.ListLessons(ctx)
	if err != nil {
		return domain.Lesson{}, err
	}
	for _, l := range lessons {
		if l.ID == lessonID {
			return l, nil
		}
	}
	return domain.Lesson{}, domain.ErrLessonNotFound
}

// DefaultLesson is the lesson selected when nothing else is chosen.
func (s *LearningService) DefaultLesson(ctx context.Context) (domain.Lesson, error) {
	lessons, err := s.lessons.ListLessons(ctx)
	if err != nil {
		return domain.Lesson{}, err
	}
	if len(lessons) == 0 {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	return lessons[0], nil
}

// OpenQuiz starts a quiz for the lesson under sessionID. Reopening the same
// session on the same lesson resumes it; a session moved to another lesson
// starts over.
func (s *LearningService) OpenQuiz(ctx context.Context, sessionID, lessonID string) (QuizState, error) {
	if sessionID == "" {
		return QuizState{}, domain.ErrInvalidSession
	}
	lesson, err := s.Lesson(ctx, lessonID)
	if err != nil {
		return QuizState{}, err
	}
	if engine, ok := s.sessions.Get(sessionID); ok && engine.LessonID() != lessonID {
		s.sessions.Delete(ctx, sessionID)
	}
	engine, err := s.sessions.GetOrCreate(ctx, sessionID, func() (*QuizEngine, error) {
		return NewQuizEngine(lesson, s.progress)
	})
	if err != nil {
		return QuizState{}, err
	}
	s.log.Debug("quiz opened", "session_id", sessionID, "lesson_id", lessonID)
	return snapshot(sessionID, engine), nil
}

func (s *LearningService) AnswerChoice(ctx context.Context, sessionID, optionID string) (Outcome, QuizState, error) {
	engine, err := s.session(sessionID)
	if err != nil {
		return Outcome{}, QuizState{}, err
	}
	out := engine.AnswerMultipleChoice(ctx, optionID)
	return out, snapshot(sessionID, engine), nil
}

func (s *LearningService) AnswerBlank(ctx context.Context, sessionID, answer string) (Outcome, QuizState, error) {
	engine, err := s.session(sessionID)
	if err != nil {
		return Outcome{}, QuizState{}, err
	}
	out := engine.AnswerFillInTheBlank(ctx, answer)
	return out, snapshot(sessionID, engine), nil
}

func (s *LearningService) CommitOrdering(ctx context.Context, sessionID string) (Outcome, QuizState, error) {
	engine, err := s.session(sessionID)
	if err != nil {
		return Outcome{}, QuizState{}, err
	}
	out := engine.CommitOrdering(ctx)
	return out, snapshot(sessionID, engine), nil
}

func (s *LearningService) Reorder(_ context.Context, sessionID string, order []string) (QuizState, error) {
	engine, err := s.session(sessionID)
	if err != nil {
		return QuizState{}, err
	}
	engine.SetPendingOrder(order)
	return snapshot(sessionID, engine), nil
}

// MoveOrder moves one entry of the ordering buffer. Out-of-range indices
// leave the buffer unchanged.
func (s *LearningService) MoveOrder(_ context.Context, sessionID string, from, to int) (QuizState, error) {
	engine, err := s.session(sessionID)
	if err != nil {
		return QuizState{}, err
	}
	engine.MovePending(from, to)
	return snapshot(sessionID, engine), nil
}

func (s *LearningService) Restart(_ context.Context, sessionID string) (QuizState, error) {
	engine, err := s.session(sessionID)
	if err != nil {
		return QuizState{}, err
	}
	engine.Restart()
	return snapshot(sessionID, engine), nil
}

// CloseQuiz discards the session. Earned XP and badges are already persisted.
func (s *LearningService) CloseQuiz(ctx context.Context, sessionID string) {
	s.sessions.Delete(ctx, sessionID)
}

func (s *LearningService) Profile(ctx context.Context) domain.Profile {
	return s.progress.Profile(ctx)
}

func (s *LearningService) StreakStatus(ctx context.Context) StreakStatus {
	return s.progress.StreakStatus(ctx)
}

func (s *LearningService) session(sessionID string) (*QuizEngine, error) {
	engine, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return engine, nil
}

func snapshot(sessionID string, engine *QuizEngine) QuizState {
	state := engine.Snapshot()
	state.SessionID = sessionID
	return state
}
