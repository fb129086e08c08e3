package event

import (
	"sort"
)

// Change types reported by DiffDays
const (
	ChangeAdded      = "added"
	ChangeRemoved    = "removed"
	ChangeCancelled  = "cancelled"
	ChangeReinstated = "reinstated"
)

// EventChange represents a change detected between two extractions of the same day
type EventChange struct {
	EventID    string `json:"event_id"`
	Date       string `json:"date"`
	ChangeType string `json:"change_type"` // "added", "removed", "cancelled", "reinstated"
	StartTime  string `json:"start_time"`
	ClassName  string `json:"class_name"`
	Location   string `json:"location,omitempty"`
}

// DiffDays compares a previously stored day with a freshly extracted one.
// A nil previous day reports every current event as added.
func DiffDays(previous, current *Day) []*EventChange {
	if current == nil {
		return nil
	}

	prevByKey := make(map[string]*Event)
	if previous != nil {
		for _, evt := range previous.Events {
			prevByKey[evt.Key()] = evt
		}
	}

	changes := make([]*EventChange, 0)
	seen := make(map[string]bool)

	for _, evt := range current.Events {
		key := evt.Key()
		seen[key] = true

		prev, exists := prevByKey[key]
		switch {
		case !exists:
			changes = append(changes, newChange(current.Date, evt, ChangeAdded))
		case !prev.Cancelled && evt.Cancelled:
			changes = append(changes, newChange(current.Date, evt, ChangeCancelled))
		case prev.Cancelled && !evt.Cancelled:
			changes = append(changes, newChange(current.Date, evt, ChangeReinstated))
		}
	}

	if previous != nil {
		for _, evt := range previous.Events {
			if !seen[evt.Key()] {
				changes = append(changes, newChange(current.Date, evt, ChangeRemoved))
			}
		}
	}

	// Sort for consistent output
	sort.SliceStable(changes, func(i, j int) bool {
		ci, cj := ParseClock(changes[i].StartTime), ParseClock(changes[j].StartTime)
		if ci != cj {
			return ci < cj
		}
		return changes[i].ClassName < changes[j].ClassName
	})

	return changes
}

func newChange(date string, evt *Event, changeType string) *EventChange {
	return &EventChange{
		EventID:    GenerateID(date, evt),
		Date:       date,
		ChangeType: changeType,
		StartTime:  evt.StartTime,
		ClassName:  evt.ClassName,
		Location:   evt.Location,
	}
}
