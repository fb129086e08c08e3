package event

import (
	"fmt"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ParseMonth converts a full English month name to time.Month.
// Returns 0 if the name is not recognized.
func ParseMonth(name string) time.Month {
	return months[strings.ToLower(strings.TrimSpace(name))]
}

// InferYear picks the year for a month printed without one.
//
// A month more than six months behind the current month is assumed to belong to the
// following year (a December schedule listing January days). Anything else stays in the
// current year. Dates exactly six months out are therefore placed in the current year.
func InferYear(month time.Month, now time.Time) int {
	year := now.Year()
	if int(month) < int(now.Month())-6 {
		year++
	}
	return year
}

// ResolveDate builds the calendar date for a day header.
// year <= 0 means the header carried no year and InferYear is applied.
// Returns an error if the month is unknown or the day does not exist in that month.
func ResolveDate(monthName string, day, year int, now time.Time) (time.Time, error) {
	month := ParseMonth(monthName)
	if month == 0 {
		return time.Time{}, fmt.Errorf("unknown month: %q", monthName)
	}

	if year <= 0 {
		year = InferYear(month, now)
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date: %s %d, %d", monthName, day, year)
	}

	return t, nil
}

// ParseDate parses a YYYY-MM-DD key into a time.Time.
// Returns time.Time{} (zero value) if parsing fails.
func ParseDate(dateText string) time.Time {
	if dateText == "" {
		return time.Time{}
	}

	t, err := time.Parse(DateLayout, dateText)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseClock parses a display time such as "5:30am" or "12:00pm" into minutes after
// midnight. Returns -1 if the text is not a valid clock time.
func ParseClock(text string) int {
	t, err := time.Parse("3:04pm", strings.ToLower(strings.TrimSpace(text)))
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}

// WeekStart returns the Sunday starting the week that contains t
func WeekStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// IsPast checks if the day has already ended relative to now.
// Returns false if the date cannot be parsed.
func (d *Day) IsPast(now time.Time) bool {
	parsed := ParseDate(d.Date)
	if parsed.IsZero() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return parsed.Before(today)
}
