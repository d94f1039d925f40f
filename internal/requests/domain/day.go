package domain

import "time"

// DayLayout is the date format used for list keys and history lookups.
const DayLayout = "2006-01-02"

// ValidDay reports whether s is a calendar date in YYYY-MM-DD form.
func ValidDay(s string) bool {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return false
	}
	return t.Format(DayLayout) == s
}

// BroadcastDay returns the list a request made at now belongs to. Requests
// at or after cutoffHour go to the next day's list.
func BroadcastDay(now time.Time, cutoffHour int) string {
	day := now
	if now.Hour() >= cutoffHour {
		day = now.AddDate(0, 0, 1)
	}
	return day.Format(DayLayout)
}
