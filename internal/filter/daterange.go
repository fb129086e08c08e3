package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/rec-schedule/internal/event"
)

const monthNames = `jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december`

var (
	sameMonthRange  = regexp.MustCompile(`(?i)^(` + monthNames + `)\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthRange = regexp.MustCompile(`(?i)^(` + monthNames + `)\s+(\d{1,2})\s*-\s*(` + monthNames + `)\s+(\d{1,2})$`)
	wholeMonth      = regexp.MustCompile(`(?i)^(` + monthNames + `)$`)
	isoRange        = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:\s*\.\.\s*(\d{4}-\d{2}-\d{2}))?$`)
)

// ParseDateRange parses a date range string into start and end times.
//
// Supported formats:
//   - "Jun 1-7" or "June 1-7" - Same month, different days
//   - "June 28 - July 4" - Different months
//   - "June" - Entire month
//   - "2026-06-01" or "2026-06-01..2026-06-07" - Explicit dates
//
// Years are inferred from now the same way schedule headers are: a month more than
// six months behind now belongs to next year. For cross-month ranges, an end month
// before the start month is in the following year.
//
// Start time is at 00:00:00 UTC, end time is at 23:59:59 UTC.
func ParseDateRange(input string, now time.Time) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if matches := isoRange.FindStringSubmatch(input); matches != nil {
		from, err := time.Parse(event.DateLayout, matches[1])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", matches[1])
		}
		to := from
		if matches[2] != "" {
			to, err = time.Parse(event.DateLayout, matches[2])
			if err != nil {
				return nil, nil, fmt.Errorf("invalid date: %s", matches[2])
			}
		}
		return bounds(from, to)
	}

	if matches := sameMonthRange.FindStringSubmatch(input); matches != nil {
		month := parseMonth(matches[1])
		day1, err := parseDay(matches[2])
		if err != nil {
			return nil, nil, err
		}
		day2, err := parseDay(matches[3])
		if err != nil {
			return nil, nil, err
		}

		year := event.InferYear(month, now)
		return bounds(
			time.Date(year, month, day1, 0, 0, 0, 0, time.UTC),
			time.Date(year, month, day2, 0, 0, 0, 0, time.UTC),
		)
	}

	if matches := crossMonthRange.FindStringSubmatch(input); matches != nil {
		month1 := parseMonth(matches[1])
		day1, err := parseDay(matches[2])
		if err != nil {
			return nil, nil, err
		}
		month2 := parseMonth(matches[3])
		day2, err := parseDay(matches[4])
		if err != nil {
			return nil, nil, err
		}

		year1 := event.InferYear(month1, now)
		year2 := year1
		if month2 < month1 {
			year2++
		}

		return bounds(
			time.Date(year1, month1, day1, 0, 0, 0, 0, time.UTC),
			time.Date(year2, month2, day2, 0, 0, 0, 0, time.UTC),
		)
	}

	if matches := wholeMonth.FindStringSubmatch(input); matches != nil {
		month := parseMonth(matches[1])
		year := event.InferYear(month, now)
		return bounds(
			time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC), // last day of month
		)
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use 'Jun 1-7', 'June 28 - July 4', 'June' or '2026-06-01..2026-06-07'")
}

func bounds(from, to time.Time) (*time.Time, *time.Time, error) {
	to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
	if from.After(to) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &to, nil
}

func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid day: %s", s)
	}
	return day, nil
}

// parseMonth converts a month name or abbreviation to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "sept" {
		return time.September
	}
	if len(name) > 3 {
		return event.ParseMonth(name)
	}
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), name) {
			return m
		}
	}
	return 0
}
