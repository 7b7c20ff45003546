package utils

import "time"

// TimeNowUTC returns the current time in UTC. Market data timestamps and all
// persisted output use UTC.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// FormatDateUTC renders t as a YYYY-MM-DD date in UTC.
func FormatDateUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
