// Package filter narrows parsed schedule days down to the classes a user cares about.
//
// Criteria combine with AND; list criteria match when any entry matches:
//   - Date range (from/to, inclusive)
//   - Class names, instructors and locations (case-insensitive substring match)
//   - Categories (case-insensitive exact match on the code, e.g. "AQ")
//   - Start time window ("6:00am" to "9:00am", inclusive)
//   - Weekends only, hide cancelled classes, sign-up classes only
//   - Upcoming only (days before a reference date are dropped)
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Categories = []string{"AQ"}
//	f.Locations = []string{"Carla Madison"}
//	f.HideCancelled = true
//
//	days = f.Apply(days)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/rec-schedule/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Substring matches
	Classes     []string `json:"classes,omitempty"`
	Instructors []string `json:"instructors,omitempty"`
	Locations   []string `json:"locations,omitempty"`

	// Category code matches
	Categories []string `json:"categories,omitempty"`

	// Start time window, as printed on the schedule ("6:00am")
	StartAfter  string `json:"start_after,omitempty"`
	StartBefore string `json:"start_before,omitempty"`

	WeekendsOnly  bool `json:"weekends_only,omitempty"`
	HideCancelled bool `json:"hide_cancelled,omitempty"`
	SignupOnly    bool `json:"signup_only,omitempty"`

	// Days that ended before this instant are dropped
	UpcomingFrom *time.Time `json:"upcoming_from,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Classes:     []string{},
		Instructors: []string{},
		Locations:   []string{},
		Categories:  []string{},
	}
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Classes) == 0 &&
		len(f.Instructors) == 0 &&
		len(f.Locations) == 0 &&
		len(f.Categories) == 0 &&
		f.StartAfter == "" &&
		f.StartBefore == "" &&
		!f.WeekendsOnly &&
		!f.HideCancelled &&
		!f.SignupOnly &&
		f.UpcomingFrom == nil
}

// Validate checks that the time window can be read
func (f *Filter) Validate() error {
	if f.StartAfter != "" && event.ParseClock(f.StartAfter) < 0 {
		return fmt.Errorf("invalid start time %q, use a time like 6:00am", f.StartAfter)
	}
	if f.StartBefore != "" && event.ParseClock(f.StartBefore) < 0 {
		return fmt.Errorf("invalid start time %q, use a time like 9:00pm", f.StartBefore)
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return fmt.Errorf("start date must be before end date")
	}
	return nil
}

// MatchesDay checks the day-level criteria (date range, weekends, upcoming)
func (f *Filter) MatchesDay(day *event.Day) bool {
	if f.UpcomingFrom != nil && day.IsPast(*f.UpcomingFrom) {
		return false
	}

	date := day.Time()
	if date.IsZero() {
		// Undated days only pass filters that ignore dates
		return f.DateFrom == nil && f.DateTo == nil && !f.WeekendsOnly
	}

	if f.DateFrom != nil && date.Before(truncateDay(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && date.After(*f.DateTo) {
		return false
	}
	if f.WeekendsOnly {
		weekday := date.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}
	return true
}

// Matches checks if an event matches all event-level criteria
func (f *Filter) Matches(evt *event.Event) bool {
	if f.HideCancelled && evt.Cancelled {
		return false
	}
	if f.SignupOnly && !evt.RequiresSignup {
		return false
	}
	if !containsAny(evt.ClassName, f.Classes) {
		return false
	}
	if !containsAny(evt.Instructor, f.Instructors) {
		return false
	}
	if !containsAny(evt.Location, f.Locations) {
		return false
	}

	if len(f.Categories) > 0 {
		matched := false
		for _, c := range f.Categories {
			if strings.EqualFold(evt.Category, c) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.StartAfter != "" || f.StartBefore != "" {
		start := event.ParseClock(evt.StartTime)
		if start < 0 {
			return false
		}
		if after := event.ParseClock(f.StartAfter); after >= 0 && start < after {
			return false
		}
		if before := event.ParseClock(f.StartBefore); before >= 0 && start > before {
			return false
		}
	}

	return true
}

// Apply returns the days that pass the day-level criteria, each holding only the
// matching events. Days left without events are dropped. An empty filter returns
// the input unchanged. Input days are not modified.
func (f *Filter) Apply(days []*event.Day) []*event.Day {
	if f.IsEmpty() {
		return days
	}

	filtered := make([]*event.Day, 0, len(days))
	for _, day := range days {
		if !f.MatchesDay(day) {
			continue
		}

		out := *day
		out.Events = make([]*event.Event, 0, len(day.Events))
		for _, evt := range day.Events {
			if f.Matches(evt) {
				out.Events = append(out.Events, evt)
			}
		}
		if len(out.Events) > 0 {
			filtered = append(filtered, &out)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Jun 1, 2026 | Categories: AQ | Hide cancelled"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Classes) > 0 {
		parts = append(parts, fmt.Sprintf("Classes: %s", strings.Join(f.Classes, ", ")))
	}
	if len(f.Instructors) > 0 {
		parts = append(parts, fmt.Sprintf("Instructors: %s", strings.Join(f.Instructors, ", ")))
	}
	if len(f.Locations) > 0 {
		parts = append(parts, fmt.Sprintf("Locations: %s", strings.Join(f.Locations, ", ")))
	}
	if len(f.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(f.Categories, ", ")))
	}
	if f.StartAfter != "" {
		parts = append(parts, fmt.Sprintf("After: %s", f.StartAfter))
	}
	if f.StartBefore != "" {
		parts = append(parts, fmt.Sprintf("Before: %s", f.StartBefore))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	if f.HideCancelled {
		parts = append(parts, "Hide cancelled")
	}
	if f.SignupOnly {
		parts = append(parts, "Sign-up only")
	}
	if f.UpcomingFrom != nil {
		parts = append(parts, "Upcoming only")
	}

	return strings.Join(parts, " | ")
}

// containsAny reports whether value contains any of the needles, ignoring case.
// An empty needle list matches everything.
func containsAny(value string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	lower := strings.ToLower(value)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
