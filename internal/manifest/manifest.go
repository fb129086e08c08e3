package manifest

import (
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/rec-schedule/internal/event"
)

const (
	// DefaultPrefix is the file prefix for per-day documents
	DefaultPrefix = "denver"
	// MasterKey is the key of the master manifest
	MasterKey = "manifest.json"
	// WeekKeyPrefix starts every week manifest key
	WeekKeyPrefix = "week_"
)

// DayEntry summarizes one stored day inside a week manifest
type DayEntry struct {
	Date        string `json:"date"`
	DayName     string `json:"day_name"`
	DisplayDate string `json:"display_date"`
	EventCount  int    `json:"event_count"`
	File        string `json:"file"`
}

// WeekManifest lists the stored days of one Sunday-to-Saturday week
type WeekManifest struct {
	WeekStart    string     `json:"week_start"`
	WeekEnd      string     `json:"week_end"`
	DisplayRange string     `json:"display_range"`
	Days         []DayEntry `json:"days"`
}

// WeekSummary references a week manifest from the master manifest
type WeekSummary struct {
	WeekStart    string `json:"week_start"`
	WeekEnd      string `json:"week_end"`
	DisplayRange string `json:"display_range"`
	DayCount     int    `json:"day_count"`
	EventCount   int    `json:"event_count"`
	File         string `json:"file"`
}

// MasterManifest indexes every known week
type MasterManifest struct {
	GeneratedAt string        `json:"generated_at"`
	RunID       string        `json:"run_id"`
	Weeks       []WeekSummary `json:"weeks"`
	CurrentWeek *WeekSummary  `json:"current_week"`
}

// DayKey returns the document key for a day, e.g. "denver_2026_06_01.json"
func DayKey(prefix, date string) string {
	return prefix + "_" + strings.ReplaceAll(date, "-", "_") + ".json"
}

// WeekKey returns the document key for the week starting on weekStart
func WeekKey(weekStart time.Time) string {
	return WeekKeyPrefix + weekStart.Format("2006_01_02") + ".json"
}

// DisplayRange formats a week span such as "May 31 - June 6, 2026".
// Both years are shown when the span crosses a year boundary.
func DisplayRange(start, end time.Time) string {
	if start.Year() != end.Year() {
		return start.Format("January 2, 2006") + " - " + end.Format("January 2, 2006")
	}
	return start.Format("January 2") + " - " + end.Format("January 2, 2006")
}

// BuildWeeks groups days into week manifests sorted by week start. Days whose date
// cannot be parsed are ignored. When two days share a date the later one wins.
func BuildWeeks(days []*event.Day, prefix string) []*WeekManifest {
	byDate := make(map[string]*event.Day)
	for _, d := range days {
		if d == nil || event.ParseDate(d.Date).IsZero() {
			continue
		}
		byDate[d.Date] = d
	}

	weeks := make(map[string]*WeekManifest)
	for _, d := range byDate {
		start := event.WeekStart(d.Time())
		key := start.Format(event.DateLayout)

		w, ok := weeks[key]
		if !ok {
			end := start.AddDate(0, 0, 6)
			w = &WeekManifest{
				WeekStart:    key,
				WeekEnd:      end.Format(event.DateLayout),
				DisplayRange: DisplayRange(start, end),
				Days:         make([]DayEntry, 0, 7),
			}
			weeks[key] = w
		}

		w.Days = append(w.Days, DayEntry{
			Date:        d.Date,
			DayName:     d.DayName,
			DisplayDate: d.DisplayDate,
			EventCount:  len(d.Events),
			File:        DayKey(prefix, d.Date),
		})
	}

	result := make([]*WeekManifest, 0, len(weeks))
	for _, w := range weeks {
		sort.Slice(w.Days, func(i, j int) bool {
			return w.Days[i].Date < w.Days[j].Date
		})
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].WeekStart < result[j].WeekStart
	})

	return result
}

// Summary returns the master-manifest entry for the week
func (w *WeekManifest) Summary() WeekSummary {
	s := WeekSummary{
		WeekStart:    w.WeekStart,
		WeekEnd:      w.WeekEnd,
		DisplayRange: w.DisplayRange,
		DayCount:     len(w.Days),
		File:         WeekKey(event.ParseDate(w.WeekStart)),
	}
	for _, d := range w.Days {
		s.EventCount += d.EventCount
	}
	return s
}

// Contains reports whether the calendar date of t falls within the week
func (w *WeekManifest) Contains(t time.Time) bool {
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(event.DateLayout)
	return today >= w.WeekStart && today <= w.WeekEnd
}

// BuildMaster folds week manifests into a master manifest. weeks must already be
// sorted by week start.
func BuildMaster(weeks []*WeekManifest, now time.Time, runID string) *MasterManifest {
	m := &MasterManifest{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		RunID:       runID,
		Weeks:       make([]WeekSummary, 0, len(weeks)),
	}

	for _, w := range weeks {
		s := w.Summary()
		m.Weeks = append(m.Weeks, s)
		if m.CurrentWeek == nil && w.Contains(now) {
			current := s
			m.CurrentWeek = &current
		}
	}

	return m
}
