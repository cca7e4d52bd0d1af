package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"lesson-progress-engine/internal/domain"
	"lesson-progress-engine/internal/platform/logger"
)

// DefaultProfileKey is the KV key the profile is stored under.
const DefaultProfileKey = "com.mlstudyapp.gamification"

const (
	centuryClubXP      = 100
	highScoreThreshold = 0.8
)

// KVStore is the opaque persistence substrate for the profile blob.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// GamificationStore owns the learner profile. Every mutation is written
// through to the KV store before the call returns.
type GamificationStore struct {
	kv  KVStore
	key string
	log *logger.Logger
	now func() time.Time
	loc *time.Location

	mu      sync.Mutex
	loaded  bool
	profile domain.Profile
}

type StoreOption func(*GamificationStore)

func WithProfileKey(key string) StoreOption {
	return func(s *GamificationStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock is used by tests to pin "today".
func WithClock(now func() time.Time) StoreOption {
	return func(s *GamificationStore) { s.now = now }
}

// WithLocation sets the timezone used to cut calendar days.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *GamificationStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(log *logger.Logger) StoreOption {
	return func(s *GamificationStore) {
		if log != nil {
			s.log = log
		}
	}
}

func NewGamificationStore(kv KVStore, opts ...StoreOption) *GamificationStore {
	s := &GamificationStore{
		kv:      kv,
		key:     DefaultProfileKey,
		log:     logger.Nop(),
		now:     time.Now,
		loc:     time.Local,
		profile: domain.NewProfile(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory profile with the stored one. A missing or
// undecodable record yields the default profile.
func (s *GamificationStore) Load(ctx context.Context) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return s.profile.Clone()
}

// Save flushes the in-memory profile.
func (s *GamificationStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
	return s.saveLocked(ctx)
}

// Profile returns a copy of the current profile.
func (s *GamificationStore) Profile(ctx context.Context) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
	return s.profile.Clone()
}

// StreakStatus reports where the streak stands relative to today.
func (s *GamificationStore) StreakStatus(ctx context.Context) StreakStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
	return streakStatus(s.today(), s.profile.LastActiveDay)
}

// AddXP credits xp for a correct answer. Streak and badge bookkeeping run
// on every call, so a streak can advance in the middle of a quiz.
func (s *GamificationStore) AddXP(ctx context.Context, lessonID string, amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	if amount > 0 {
		s.profile.XP += amount
	}
	s.updateStreakLocked(ctx)
	s.checkBadgesLocked(ctx)
	s.persistLocked(ctx)
	s.log.Debug("xp added", "lesson_id", lessonID, "amount", amount, "xp", s.profile.XP)
}

// CompleteLesson records a finished quiz.
func (s *GamificationStore) CompleteLesson(ctx context.Context, lessonID string, score, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	s.profile.CompletedLessons[lessonID] = struct{}{}
	if total > 0 && float64(score)/float64(total) >= highScoreThreshold {
		s.awardLocked(ctx, domain.BadgeHighScore)
	}
	s.updateStreakLocked(ctx)
	s.checkBadgesLocked(ctx)
	s.persistLocked(ctx)
	s.log.Info("lesson completed", "lesson_id", lessonID, "score", score, "total", total, "streak", s.profile.Streak)
}

func (s *GamificationStore) today() time.Time {
	return startOfDay(s.now(), s.loc)
}

func (s *GamificationStore) updateStreakLocked(ctx context.Context) {
	upd := advanceStreak(s.today(), s.profile.LastActiveDay, s.profile.Streak)
	s.profile.Streak = upd.streak
	day := upd.lastActiveDay
	s.profile.LastActiveDay = &day
	if upd.extended {
		s.awardLocked(ctx, domain.BadgeStreakStarter)
	}
}

func (s *GamificationStore) checkBadgesLocked(ctx context.Context) {
	// only on the first completion; a profile stored with several lessons
	// and no badge does not earn it late
	if len(s.profile.CompletedLessons) == 1 {
		s.awardLocked(ctx, domain.BadgeFirstLesson)
	}
	if s.profile.XP >= centuryClubXP {
		s.awardLocked(ctx, domain.BadgeCenturyClub)
	}
}

// awardLocked appends the badge and flushes on its own, separate from the
// flush of the mutation that triggered it.
func (s *GamificationStore) awardLocked(ctx context.Context, t domain.BadgeType) {
	if s.profile.HasBadge(t) {
		return
	}
	s.profile.Badges = append(s.profile.Badges, domain.NewBadge(t, s.now()))
	s.persistLocked(ctx)
	s.log.Info("badge earned", "badge", string(t))
}

func (s *GamificationStore) ensureLoadedLocked(ctx context.Context) {
	if !s.loaded {
		s.loadLocked(ctx)
	}
}

func (s *GamificationStore) loadLocked(ctx context.Context) {
	s.loaded = true
	s.profile = domain.NewProfile()

	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.Warn("profile read failed, using default", "key", s.key, "error", err)
		return
	}
	if !ok {
		return
	}
	var record domain.ProfileRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		s.log.Warn("profile decode failed, using default", "key", s.key, "error", err)
		return
	}
	s.profile = record.Profile()
}

func (s *GamificationStore) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.profile.Record())
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// persistLocked is best effort: the in-memory profile stays authoritative
// when the write fails.
func (s *GamificationStore) persistLocked(ctx context.Context) {
	if err := s.saveLocked(ctx); err != nil {
		s.log.Warn("profile persist failed", "key", s.key, "error", err)
	}
}
