package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/rec-schedule/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByTime       SortOrder = "time"
	SortByClass      SortOrder = "class"
	SortByLocation   SortOrder = "location"
	SortByInstructor SortOrder = "instructor"
)

func validSortOrder(o SortOrder) bool {
	switch o {
	case SortByTime, SortByClass, SortByLocation, SortByInstructor:
		return true
	}
	return false
}

// sortDays sorts the events within each day. An empty order keeps page order.
func sortDays(days []*event.Day, sortOrder SortOrder) {
	if sortOrder == "" {
		return
	}
	for _, d := range days {
		sortEvents(d.Events, sortOrder)
	}
}

// sortEvents sorts a slice of events based on the specified sort order
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByTime:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByTime(events[i], events[j])
		})
	case SortByClass:
		sort.SliceStable(events, func(i, j int) bool {
			return compareBy(events[i].ClassName, events[j].ClassName, events[i], events[j])
		})
	case SortByLocation:
		sort.SliceStable(events, func(i, j int) bool {
			return compareBy(events[i].Location, events[j].Location, events[i], events[j])
		})
	case SortByInstructor:
		sort.SliceStable(events, func(i, j int) bool {
			return compareBy(events[i].Instructor, events[j].Instructor, events[i], events[j])
		})
	}
}

// compareBy orders by a text key case-insensitively, then by start time
func compareBy(a, b string, i, j *event.Event) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a != b {
		return a < b
	}
	return compareByTime(i, j)
}

// compareByTime compares two events by their start time
// Returns true if event i should come before event j
func compareByTime(i, j *event.Event) bool {
	ti := event.ParseClock(i.StartTime)
	tj := event.ParseClock(j.StartTime)

	// If both times are valid, compare them
	if ti >= 0 && tj >= 0 && ti != tj {
		return ti < tj
	}

	// If only one time is valid, put the valid one first
	if ti >= 0 && tj < 0 {
		return true
	}
	if tj >= 0 && ti < 0 {
		return false
	}

	return strings.ToLower(i.ClassName) < strings.ToLower(j.ClassName)
}
