package digest

import "time"

// Window holds the calendar-day boundaries a digest is assembled against.
// Boundaries are computed in the platform's configured local time zone,
// not UTC, so "today's tasks" match what a human considers today
// regardless of where the server runs.
type Window struct {
	TodayStart     time.Time
	TodayEnd       time.Time
	YesterdayStart time.Time
}

// DayWindow computes the day boundaries containing now in loc.
func DayWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{
		TodayStart:     todayStart,
		TodayEnd:       todayStart.AddDate(0, 0, 1),
		YesterdayStart: todayStart.AddDate(0, 0, -1),
	}
}

// NextSlot returns the next scheduled digest slot after now: the earlier
// of the morning and afternoon hours, rolling to the next morning when
// both have passed. Used for client display only; the actual trigger is
// an external scheduler.
func NextSlot(now time.Time, loc *time.Location, morningHour, afternoonHour int) time.Time {
	local := now.In(loc)
	morning := time.Date(local.Year(), local.Month(), local.Day(), morningHour, 0, 0, 0, loc)
	afternoon := time.Date(local.Year(), local.Month(), local.Day(), afternoonHour, 0, 0, 0, loc)

	switch {
	case local.Before(morning):
		return morning
	case local.Before(afternoon):
		return afternoon
	default:
		return morning.AddDate(0, 0, 1)
	}
}
