package fixture

import (
	"strconv"
	"strings"
	"time"
)

// DefaultKickoffHour is used when a row carries a date but no time.
// It is an approximation, not a guess at the true kickoff.
const DefaultKickoffHour = 12

// Normalize converts date/time tokens into a UTC timestamp.
//
// The source format is day/month/year. When the month token exceeds 12 while
// the day token is a valid month, the two are swapped. Two-digit years are
// prefixed with "20". A missing or unparseable time defaults to 12:00 UTC.
// No venue timezone correction is applied.
func Normalize(date *DateTokens, clock *TimeTokens) (time.Time, bool) {
	if date == nil {
		return time.Time{}, false
	}

	day, dayErr := strconv.Atoi(strings.TrimSpace(date.Day))
	month, monthErr := strconv.Atoi(strings.TrimSpace(date.Month))
	year, yearErr := strconv.Atoi(expandYear(strings.TrimSpace(date.Year)))
	if dayErr != nil || monthErr != nil || yearErr != nil {
		return time.Time{}, false
	}

	if month > 12 && day <= 12 {
		day, month = month, day
	}
	if !validCalendarDate(year, month, day) {
		return time.Time{}, false
	}

	hour, minute := DefaultKickoffHour, 0
	if h, m, ok := parseClock(clock); ok {
		hour, minute = h, m
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), true
}

func expandYear(raw string) string {
	if len(raw) == 2 {
		return "20" + raw
	}
	return raw
}

func validCalendarDate(year, month, day int) bool {
	if year <= 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	probe := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return probe.Day() == day && int(probe.Month()) == month
}

func parseClock(clock *TimeTokens) (int, int, bool) {
	if clock == nil {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(clock.Hour))
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(clock.Minute))
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
