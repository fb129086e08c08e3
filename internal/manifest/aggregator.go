package manifest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/rec-schedule/internal/event"
	"github.com/pfrederiksen/rec-schedule/internal/logger"
	"github.com/pfrederiksen/rec-schedule/internal/storage"
)

// Aggregator persists parsed days and rebuilds the manifests over a Store
type Aggregator struct {
	store  storage.Store
	prefix string
	now    func() time.Time
	newID  func() string
}

// MergeResult reports what a merge wrote and how stored days changed
type MergeResult struct {
	Keys    []string
	Changes []*event.EventChange
	Master  *MasterManifest
}

// NewAggregator creates an Aggregator. An empty prefix uses DefaultPrefix and a nil
// now uses time.Now.
func NewAggregator(store storage.Store, prefix string, now func() time.Time) *Aggregator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		store:  store,
		prefix: prefix,
		now:    now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Merge stores each day, replacing any earlier record for the same date, then
// rebuilds the week and master manifests.
func (a *Aggregator) Merge(ctx context.Context, days []*event.Day) (*MergeResult, error) {
	result := &MergeResult{}

	for _, day := range days {
		if day == nil {
			continue
		}
		key := DayKey(a.prefix, day.Date)

		previous, err := a.Day(ctx, day.Date)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			// An unreadable previous record is replaced like any other
			logger.Warn("Could not load previous day", logger.Fields{
				"key":   key,
				"error": err.Error(),
			})
		}
		result.Changes = append(result.Changes, event.DiffDays(previous, day)...)

		if err := storage.PutJSON(ctx, a.store, key, day); err != nil {
			return nil, fmt.Errorf("saving day %s: %w", day.Date, err)
		}
		result.Keys = append(result.Keys, key)
		logger.IncrCounter("manifest.days_written")
	}

	master, err := a.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	result.Master = master

	return result, nil
}

// Day loads one stored day by its YYYY-MM-DD date
func (a *Aggregator) Day(ctx context.Context, date string) (*event.Day, error) {
	var day event.Day
	if err := storage.GetJSON(ctx, a.store, DayKey(a.prefix, date), &day); err != nil {
		return nil, err
	}
	return &day, nil
}

// Days loads every stored day, sorted by date
func (a *Aggregator) Days(ctx context.Context) ([]*event.Day, error) {
	keys, err := a.store.List(ctx, a.prefix+"_")
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}

	days := make([]*event.Day, 0, len(keys))
	for _, key := range keys {
		var day event.Day
		if err := storage.GetJSON(ctx, a.store, key, &day); err != nil {
			logger.Warn("Skipping unreadable day", logger.Fields{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		if event.ParseDate(day.Date).IsZero() {
			logger.Warn("Skipping day with invalid date", logger.Fields{"key": key, "date": day.Date})
			continue
		}
		days = append(days, &day)
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})

	return days, nil
}

// Rebuild regenerates every week manifest and the master manifest from the stored days
func (a *Aggregator) Rebuild(ctx context.Context) (*MasterManifest, error) {
	start := time.Now()

	days, err := a.Days(ctx)
	if err != nil {
		return nil, err
	}

	weeks := BuildWeeks(days, a.prefix)
	for _, w := range weeks {
		key := WeekKey(event.ParseDate(w.WeekStart))
		if err := storage.PutJSON(ctx, a.store, key, w); err != nil {
			return nil, fmt.Errorf("saving week %s: %w", w.WeekStart, err)
		}
	}

	master := BuildMaster(weeks, a.now(), a.newID())
	if err := storage.PutJSON(ctx, a.store, MasterKey, master); err != nil {
		return nil, fmt.Errorf("saving master manifest: %w", err)
	}

	logger.RecordTiming("manifest.rebuild", time.Since(start))
	logger.SetGauge("manifest.weeks", float64(len(weeks)))
	logger.Info("Rebuilt manifests", logger.Fields{
		"run_id": master.RunID,
		"days":   len(days),
		"weeks":  len(weeks),
	})

	return master, nil
}

// Master loads the stored master manifest
func (a *Aggregator) Master(ctx context.Context) (*MasterManifest, error) {
	var m MasterManifest
	if err := storage.GetJSON(ctx, a.store, MasterKey, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Week loads the stored week manifest for the week containing t
func (a *Aggregator) Week(ctx context.Context, t time.Time) (*WeekManifest, error) {
	var w WeekManifest
	if err := storage.GetJSON(ctx, a.store, WeekKey(event.WeekStart(t)), &w); err != nil {
		return nil, err
	}
	return &w, nil
}
