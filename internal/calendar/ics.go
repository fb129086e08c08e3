// Package calendar exports parsed schedule days as iCalendar feeds.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/rec-schedule/internal/event"
)

const (
	ProductID = "-//rec-schedule//rec-schedule//EN"
	uidDomain = "rec-schedule"
)

// Options controls calendar generation
type Options struct {
	// Location is the timezone the schedule's clock times are in. Defaults to UTC.
	Location *time.Location
	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// GenerateICS builds a calendar with one VEVENT per class. Events whose start time
// cannot be read are left out. Cancelled classes are kept with STATUS:CANCELLED so
// subscribers see the cancellation.
func GenerateICS(days []*event.Day, opts Options) string {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	stamp := opts.Now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, day := range days {
		date := day.Time()
		if date.IsZero() {
			continue
		}
		for _, evt := range day.Events {
			start, end, ok := eventTimes(date, evt, opts.Location)
			if !ok {
				continue
			}

			ve := cal.AddEvent(fmt.Sprintf("%s@%s", event.GenerateID(day.Date, evt), uidDomain))
			ve.SetDtStampTime(stamp)
			ve.SetStartAt(start)
			ve.SetEndAt(end)
			ve.SetSummary(summary(evt))
			if loc := location(evt); loc != "" {
				ve.SetLocation(loc)
			}
			if desc := description(evt); desc != "" {
				ve.SetDescription(desc)
			}
			if evt.Category != "" {
				ve.SetProperty(ical.ComponentPropertyCategories, evt.Category)
			}
			if evt.Cancelled {
				ve.SetStatus(ical.ObjectStatusCancelled)
			} else {
				ve.SetStatus(ical.ObjectStatusConfirmed)
			}
		}
	}

	return cal.Serialize(ical.WithNewLineWindows)
}

// eventTimes resolves an event's clock times on date in loc. An end time that is
// missing or not after the start falls back to a one hour class.
func eventTimes(date time.Time, evt *event.Event, loc *time.Location) (time.Time, time.Time, bool) {
	startMin := event.ParseClock(evt.StartTime)
	if startMin < 0 {
		return time.Time{}, time.Time{}, false
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	start := midnight.Add(time.Duration(startMin) * time.Minute)

	end := start.Add(time.Hour)
	if endMin := event.ParseClock(evt.EndTime); endMin > startMin {
		end = midnight.Add(time.Duration(endMin) * time.Minute)
	}

	return start, end, true
}

func summary(evt *event.Event) string {
	name := evt.ClassName
	if name == "" {
		name = "Class"
	}
	if evt.Cancelled {
		return "CANCELLED: " + name
	}
	return name
}

func location(evt *event.Event) string {
	parts := make([]string, 0, 2)
	if evt.Studio != "" {
		parts = append(parts, evt.Studio)
	}
	if evt.Location != "" {
		parts = append(parts, evt.Location)
	}
	return strings.Join(parts, ", ")
}

func description(evt *event.Event) string {
	var lines []string
	if evt.Instructor != "" {
		lines = append(lines, "Instructor: "+evt.Instructor)
	}
	if evt.Category != "" {
		lines = append(lines, "Category: "+evt.Category)
	}
	if evt.RequiresSignup {
		lines = append(lines, "Sign-up required")
	}
	return strings.Join(lines, "\n")
}
