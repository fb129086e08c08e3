package event

import (
	"crypto/sha1"
	"fmt"
	"time"
)

// Event represents a single scheduled activity within a day
type Event struct {
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	ClassName      string `json:"class_name"`
	Studio         string `json:"studio"`
	Instructor     string `json:"instructor"`
	Location       string `json:"location"`
	Category       string `json:"category"`
	Cancelled      bool   `json:"cancelled"`
	RequiresSignup bool   `json:"requires_signup"`
}

// Day represents all events extracted for one calendar date
type Day struct {
	Date        string   `json:"date"` // YYYY-MM-DD
	DayName     string   `json:"day_name"`
	DisplayDate string   `json:"display_date"`
	Events      []*Event `json:"events"`
}

// DateLayout is the key format used for Day.Date
const DateLayout = "2006-01-02"

// NewDay creates a Day for the given resolved date. dayName is the weekday as printed
// in the source header; when empty it is derived from date.
func NewDay(date time.Time, dayName string) *Day {
	if dayName == "" {
		dayName = date.Weekday().String()
	}
	return &Day{
		Date:        date.Format(DateLayout),
		DayName:     dayName,
		DisplayDate: dayName + ", " + date.Format("January 2, 2006"),
		Events:      make([]*Event, 0),
	}
}

// Time returns the day's date at midnight UTC, or the zero time if Date is malformed
func (d *Day) Time() time.Time {
	t, err := time.Parse(DateLayout, d.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CountCancelled returns how many of the day's events are cancelled
func (d *Day) CountCancelled() int {
	n := 0
	for _, evt := range d.Events {
		if evt.Cancelled {
			n++
		}
	}
	return n
}

// Key identifies an event within its day independently of its flags,
// so a class that gets cancelled keeps the same key.
func (e *Event) Key() string {
	return e.StartTime + "|" + e.EndTime + "|" + e.ClassName + "|" + e.Location
}

// GenerateID creates a deterministic ID for an event on a given date
func GenerateID(date string, e *Event) string {
	h := sha1.New()
	h.Write([]byte(date + "|" + e.Key()))
	return fmt.Sprintf("%x", h.Sum(nil))
}
