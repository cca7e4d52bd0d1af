package app

import "time"

// StreakStatus is derived from the gap between today and the last active day.
// Nothing about it is persisted.
type StreakStatus string

const (
	StreakNoHistory   StreakStatus = "noHistory"
	StreakActiveToday StreakStatus = "activeToday"
	// StreakAtRisk means the last activity was yesterday; activity today extends the streak.
	StreakAtRisk StreakStatus = "atRisk"
	StreakLapsed StreakStatus = "lapsed"
)

type streakUpdate struct {
	streak        int
	lastActiveDay time.Time
	extended      bool
}

// advanceStreak applies one day of activity. today must already be truncated
// to the start of its calendar day.
func advanceStreak(today time.Time, lastActiveDay *time.Time, streak int) streakUpdate {
	if lastActiveDay == nil {
		return streakUpdate{streak: 1, lastActiveDay: today}
	}
	switch daysBetween(*lastActiveDay, today) {
	case 0:
		return streakUpdate{streak: streak, lastActiveDay: today}
	case 1:
		return streakUpdate{streak: streak + 1, lastActiveDay: today, extended: true}
	default:
		// a gap of two or more days, or the clock moved backwards
		return streakUpdate{streak: 1, lastActiveDay: today}
	}
}

func streakStatus(today time.Time, lastActiveDay *time.Time) StreakStatus {
	if lastActiveDay == nil {
		return StreakNoHistory
	}
	switch daysBetween(*lastActiveDay, today) {
	case 0:
		return StreakActiveToday
	case 1:
		return StreakAtRisk
	default:
		return StreakLapsed
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from -> to in to's location. Both ends are
// mapped onto UTC midnights so DST transitions do not skew the count.
func daysBetween(from, to time.Time) int {
	loc := to.Location()
	fy, fm, fd := from.In(loc).Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
