package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// BadgeType is the closed set of achievements. The string values are the
// persisted form.
type BadgeType string

const (
	BadgeFirstLesson   BadgeType = "First Lesson"
	BadgeStreakStarter BadgeType = "Streak Starter"
	BadgeCenturyClub   BadgeType = "Century Club"
	BadgeHighScore     BadgeType = "High Score"
)

// AllBadgeTypes lists every badge in display order.
var AllBadgeTypes = []BadgeType{BadgeFirstLesson, BadgeStreakStarter, BadgeCenturyClub, BadgeHighScore}

// Badge is a one-time achievement.
type Badge struct {
	ID       string    `json:"id"`
	Type     BadgeType `json:"type"`
	EarnedAt time.Time `json:"earnedAt"`
}

func NewBadge(t BadgeType, earnedAt time.Time) Badge {
	return Badge{ID: uuid.NewString(), Type: t, EarnedAt: earnedAt}
}

// Profile is the persistent gamification state of the single local learner.
type Profile struct {
	Streak           int
	LastActiveDay    *time.Time
	XP               int
	CompletedLessons map[string]struct{}
	Badges           []Badge
}

// NewProfile returns the default profile used when nothing is stored yet.
func NewProfile() Profile {
	return Profile{CompletedLessons: make(map[string]struct{})}
}

func (p Profile) HasBadge(t BadgeType) bool {
	for _, b := range p.Badges {
		if b.Type == t {
			return true
		}
	}
	return false
}

func (p Profile) HasCompleted(lessonID string) bool {
	_, ok := p.CompletedLessons[lessonID]
	return ok
}

// CompletedLessonIDs returns the completed set sorted for stable output.
func (p Profile) CompletedLessonIDs() []string {
	ids := make([]string, 0, len(p.CompletedLessons))
	for id := range p.CompletedLessons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone deep-copies the profile so callers cannot mutate store state.
func (p Profile) Clone() Profile {
	out := Profile{
		Streak:           p.Streak,
		XP:               p.XP,
		CompletedLessons: make(map[string]struct{}, len(p.CompletedLessons)),
		Badges:           append([]Badge(nil), p.Badges...),
	}
	if p.LastActiveDay != nil {
		day := *p.LastActiveDay
		out.LastActiveDay = &day
	}
	for id := range p.CompletedLessons {
		out.CompletedLessons[id] = struct{}{}
	}
	return out
}

// ProfileRecord is the persisted layout of a Profile.
type ProfileRecord struct {
	DailyStreak      int        `json:"dailyStreak"`
	LastActiveDate   *time.Time `json:"lastActiveDate"`
	XP               int        `json:"xp"`
	CompletedLessons []string   `json:"completedLessons"`
	Badges           []Badge    `json:"badges"`
}

func (p Profile) Record() ProfileRecord {
	badges := p.Badges
	if badges == nil {
		badges = []Badge{}
	}
	return ProfileRecord{
		DailyStreak:      p.Streak,
		LastActiveDate:   p.LastActiveDay,
		XP:               p.XP,
		CompletedLessons: p.CompletedLessonIDs(),
		Badges:           badges,
	}
}

// Profile converts a decoded record back into a Profile. Duplicate badge
// types keep the earliest entry.
func (r ProfileRecord) Profile() Profile {
	p := NewProfile()
	p.Streak = max(r.DailyStreak, 0)
	p.XP = max(r.XP, 0)
	if r.LastActiveDate != nil {
		day := *r.LastActiveDate
		p.LastActiveDay = &day
	}
	for _, id := range r.CompletedLessons {
		p.CompletedLessons[id] = struct{}{}
	}
	for _, b := range r.Badges {
		if !p.HasBadge(b.Type) {
			p.Badges = append(p.Badges, b)
		}
	}
	return p
}
