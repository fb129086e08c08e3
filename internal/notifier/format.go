package notifier

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/rec-schedule/internal/event"
)

const ellipsis = "..."

var changeLabels = map[string]string{
	event.ChangeAdded:      "Added",
	event.ChangeRemoved:    "Removed",
	event.ChangeCancelled:  "Cancelled",
	event.ChangeReinstated: "Back on",
}

// FormatChange renders one change as a single line, e.g.
// "Cancelled: Vinyasa Yoga, Mon Jun 1 9:00am @ Central Park"
func FormatChange(c *event.EventChange) string {
	label, ok := changeLabels[c.ChangeType]
	if !ok {
		label = c.ChangeType
	}

	name := c.ClassName
	if name == "" {
		name = "Class"
	}

	when := c.Date
	if t, err := time.Parse(event.DateLayout, c.Date); err == nil {
		when = t.Format("Mon Jan 2")
	}
	if c.StartTime != "" {
		when += " " + c.StartTime
	}

	line := fmt.Sprintf("%s: %s, %s", label, name, when)
	if c.Location != "" {
		line += " @ " + c.Location
	}
	return line
}

// FormatMessages packs changes into as few messages as possible, each at most
// limit characters. Every message starts with a header line. A single change
// longer than the limit is truncated.
func FormatMessages(changes []*event.EventChange, limit int) []string {
	if len(changes) == 0 {
		return nil
	}

	header := fmt.Sprintf("Schedule update (%d change", len(changes))
	if len(changes) != 1 {
		header += "s"
	}
	header += ")"

	var messages []string
	var b strings.Builder
	b.WriteString(header)

	for _, c := range changes {
		line := truncate(FormatChange(c), limit-utf8.RuneCountInString(header)-1)
		if utf8.RuneCountInString(b.String())+1+utf8.RuneCountInString(line) > limit {
			messages = append(messages, b.String())
			b.Reset()
			b.WriteString(header)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	messages = append(messages, b.String())

	return messages
}

func truncate(s string, limit int) string {
	if limit <= len(ellipsis) || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}
