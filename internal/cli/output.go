package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/rec-schedule/internal/event"
	"github.com/pfrederiksen/rec-schedule/internal/manifest"
	"github.com/pfrederiksen/rec-schedule/internal/parser"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ScheduleOutput contains parsed or stored days to be output
type ScheduleOutput struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Days        []*event.Day         `json:"days"`
	DayCount    int                  `json:"day_count"`
	EventCount  int                  `json:"event_count"`
	Filter      string               `json:"filter,omitempty"`
	Skipped     []*parser.SkippedDay `json:"skipped,omitempty"`
	Saved       []string             `json:"saved,omitempty"`
	Changes     []*event.EventChange `json:"changes,omitempty"`
}

func (o *ScheduleOutput) setDays(days []*event.Day) {
	if days == nil {
		days = []*event.Day{}
	}
	o.Days = days
	o.DayCount = len(days)
	o.EventCount = countEvents(days)
}

// ScrapeOutput summarizes one scrape run
type ScrapeOutput struct {
	CheckedAt  time.Time                `json:"checked_at"`
	Views      int                      `json:"views"`
	Days       []string                 `json:"days"`
	EventCount int                      `json:"event_count"`
	DryRun     bool                     `json:"dry_run,omitempty"`
	Skipped    []*parser.SkippedDay     `json:"skipped,omitempty"`
	Changes    []*event.EventChange     `json:"changes"`
	Master     *manifest.MasterManifest `json:"manifest,omitempty"`
	Notified   int                      `json:"notified,omitempty"`
}

// WriteSchedule writes days in the specified format
func WriteSchedule(w io.Writer, out *ScheduleOutput, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, out)
	case FormatText:
		return writeScheduleText(w, out, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteScrape writes a scrape summary in the specified format
func WriteScrape(w io.Writer, out *ScrapeOutput, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		if out.Changes == nil {
			out.Changes = []*event.EventChange{}
		}
		return writeJSON(w, out)
	case FormatText:
		return writeScrapeText(w, out, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteManifest writes a master manifest in the specified format
func WriteManifest(w io.Writer, m *manifest.MasterManifest, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, m)
	case FormatText:
		return writeManifestText(w, m)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeScheduleText(w io.Writer, out *ScheduleOutput, verbose bool) error {
	if out.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", out.Filter)
	}

	if out.DayCount == 0 {
		fmt.Fprintln(w, "No classes found.")
	}

	for _, day := range out.Days {
		if cancelled := day.CountCancelled(); cancelled > 0 {
			fmt.Fprintf(w, "\n%s (%d classes, %d cancelled)\n", day.DisplayDate, len(day.Events), cancelled)
		} else {
			fmt.Fprintf(w, "\n%s (%d classes)\n", day.DisplayDate, len(day.Events))
		}
		for _, evt := range day.Events {
			fmt.Fprintf(w, "  %s\n", formatEvent(evt))
			if verbose {
				if evt.Instructor != "" {
					fmt.Fprintf(w, "       Instructor: %s\n", evt.Instructor)
				}
				if evt.Studio != "" {
					fmt.Fprintf(w, "       Studio: %s\n", evt.Studio)
				}
				fmt.Fprintf(w, "       ID: %s\n", event.GenerateID(day.Date, evt))
			}
		}
	}

	if len(out.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped %d day(s):\n", len(out.Skipped))
		for _, s := range out.Skipped {
			fmt.Fprintf(w, "  line %d: %s (%s)\n", s.Line+1, s.Header, s.Reason)
		}
	}

	if len(out.Saved) > 0 {
		fmt.Fprintf(w, "\nSaved %d day(s)\n", len(out.Saved))
		writeChangesText(w, out.Changes)
	}

	if out.DayCount > 0 {
		fmt.Fprintf(w, "\nTotal: %d classes across %d days\n", out.EventCount, out.DayCount)
	}

	return nil
}

func writeScrapeText(w io.Writer, out *ScrapeOutput, verbose bool) error {
	fmt.Fprintf(w, "Captured %d view(s): %d classes across %d days\n", out.Views, out.EventCount, len(out.Days))
	if verbose && len(out.Days) > 0 {
		fmt.Fprintf(w, "Days: %s\n", strings.Join(out.Days, ", "))
	}

	for _, s := range out.Skipped {
		fmt.Fprintf(w, "Skipped %s (%s)\n", s.Header, s.Reason)
	}

	if out.DryRun {
		fmt.Fprintln(w, "Dry run: nothing saved.")
		return nil
	}

	writeChangesText(w, out.Changes)
	if out.Notified > 0 {
		fmt.Fprintf(w, "Notified %d change(s)\n", out.Notified)
	}

	if out.Master != nil && out.Master.CurrentWeek != nil {
		fmt.Fprintf(w, "Current week: %s\n", out.Master.CurrentWeek.DisplayRange)
	}

	return nil
}

func writeChangesText(w io.Writer, changes []*event.EventChange) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "No changes.")
		return
	}

	fmt.Fprintf(w, "%d change(s):\n", len(changes))
	for _, c := range changes {
		line := fmt.Sprintf("  %-10s %s %s %s", strings.ToUpper(c.ChangeType), c.Date, c.StartTime, c.ClassName)
		if c.Location != "" {
			line += " @ " + c.Location
		}
		fmt.Fprintln(w, line)
	}
}

func writeManifestText(w io.Writer, m *manifest.MasterManifest) error {
	fmt.Fprintf(w, "Generated: %s (run %s)\n", m.GeneratedAt, m.RunID)

	if len(m.Weeks) == 0 {
		fmt.Fprintln(w, "No weeks stored.")
		return nil
	}

	for _, week := range m.Weeks {
		marker := " "
		if m.CurrentWeek != nil && m.CurrentWeek.WeekStart == week.WeekStart {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-32s %d days, %d classes  %s\n", marker, week.DisplayRange, week.DayCount, week.EventCount, week.File)
	}

	if m.CurrentWeek == nil {
		fmt.Fprintln(w, "No stored week contains today.")
	}

	return nil
}

// formatEvent renders one class as a single line
func formatEvent(evt *event.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s-%s  ", evt.StartTime, evt.EndTime)
	if evt.Cancelled {
		b.WriteString("CANCELLED ")
	}

	name := evt.ClassName
	if name == "" {
		name = "(unnamed class)"
	}
	b.WriteString(name)

	if evt.Location != "" {
		b.WriteString(" @ " + evt.Location)
	}
	if evt.Category != "" {
		b.WriteString(" [" + evt.Category + "]")
	}
	if evt.RequiresSignup {
		b.WriteString(" (sign-up)")
	}

	return b.String()
}
