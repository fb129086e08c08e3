package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/rec-schedule/internal/event"
	"github.com/pfrederiksen/rec-schedule/internal/logger"
)

// ErrNoInput is returned when the page text is empty
var ErrNoInput = errors.New("no input text")

// Options holds the source-specific tuning of the parser
type Options struct {
	// SkipLines ignores day headers above this line index
	SkipLines int
	// MaxLookahead bounds the lines scanned per event, header included
	MaxLookahead    int
	NoiseLines      []string
	NoisePatterns   []string
	TrailingMarkers []string
	Gazetteer       Gazetteer
	// Now supplies the reference date for headers without a year
	Now func() time.Time
}

// DefaultOptions returns options suited to the GroupExPro schedule page
func DefaultOptions() Options {
	return Options{
		SkipLines:       0,
		MaxLookahead:    DefaultMaxLookahead,
		NoiseLines:      DefaultNoiseLines,
		NoisePatterns:   DefaultNoisePatterns,
		TrailingMarkers: DefaultTrailingMarkers,
		Gazetteer:       DefaultGazetteer,
		Now:             time.Now,
	}
}

// Parser converts page text into days
type Parser struct {
	classifier *Classifier
	blocks     *BlockExtractor
	extractor  *Extractor
	skip       int
	now        func() time.Time
}

// SkippedDay records a day header whose block could not be turned into a Day
type SkippedDay struct {
	Line   int    `json:"line"`
	Header string `json:"header"`
	Reason string `json:"reason"`
}

// Result contains the days extracted from one page text
type Result struct {
	Days        []*event.Day  `json:"days"`
	Skipped     []*SkippedDay `json:"skipped,omitempty"`
	TimeHeaders int           `json:"time_headers"`
}

// EventCount returns the number of events across all days
func (r *Result) EventCount() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Events)
	}
	return n
}

// New creates a Parser from options. Zero-valued fields fall back to defaults,
// except Gazetteer, NoiseLines and NoisePatterns which are used as given when non-nil.
func New(opts Options) (*Parser, error) {
	defaults := DefaultOptions()
	if opts.NoiseLines == nil {
		opts.NoiseLines = defaults.NoiseLines
	}
	if opts.NoisePatterns == nil {
		opts.NoisePatterns = defaults.NoisePatterns
	}
	if opts.TrailingMarkers == nil {
		opts.TrailingMarkers = defaults.TrailingMarkers
	}
	if opts.Gazetteer == nil {
		opts.Gazetteer = defaults.Gazetteer
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}
	if opts.SkipLines < 0 {
		opts.SkipLines = 0
	}

	classifier, err := NewClassifier(opts.NoiseLines, opts.NoisePatterns)
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}

	return &Parser{
		classifier: classifier,
		blocks:     NewBlockExtractor(opts.MaxLookahead, opts.TrailingMarkers),
		extractor:  NewExtractor(opts.Gazetteer),
		skip:       opts.SkipLines,
		now:        opts.Now,
	}, nil
}

// Parse extracts days from page text using DefaultOptions
func Parse(text string) (*Result, error) {
	p, err := New(DefaultOptions())
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}

// Parse extracts all days from page text.
// A day that fails is recorded in Result.Skipped and does not affect the others.
// If the same date appears twice, the later block wins and keeps the earlier position.
func (p *Parser) Parse(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoInput
	}

	start := time.Now()
	now := p.now()

	lines := ClassifyLines(p.classifier, text)
	dayBlocks := Segment(lines, p.skip)

	result := &Result{Days: make([]*event.Day, 0, len(dayBlocks))}
	positions := make(map[string]int)

	for _, block := range dayBlocks {
		day, headers, err := p.parseDay(block, now)
		result.TimeHeaders += headers
		if err != nil {
			logger.Warn("Skipping day", logger.Fields{
				"line":   block.Index,
				"header": formatHeader(block.Header),
				"reason": err.Error(),
			})
			logger.IncrCounter("parser.day_failures")
			result.Skipped = append(result.Skipped, &SkippedDay{
				Line:   block.Index,
				Header: formatHeader(block.Header),
				Reason: err.Error(),
			})
			continue
		}

		if pos, exists := positions[day.Date]; exists {
			logger.Debug("Duplicate day in page, keeping later block", logger.Fields{"date": day.Date})
			result.Days[pos] = day
			continue
		}
		positions[day.Date] = len(result.Days)
		result.Days = append(result.Days, day)
	}

	logger.IncrCounter("parser.runs")
	logger.SetGauge("parser.last_events", float64(result.EventCount()))
	logger.RecordTiming("parser.parse", time.Since(start))
	logger.Debug("Parsed page text", logger.Fields{
		"lines":        len(lines),
		"day_blocks":   len(dayBlocks),
		"days":         len(result.Days),
		"time_headers": result.TimeHeaders,
	})

	return result, nil
}

// ParseViews parses several views of the same schedule (one per day tab) and merges
// them. Blank views are ignored; ErrNoInput is returned only when every view is blank.
// A date seen in more than one view takes the later view's record at the earlier position.
func (p *Parser) ParseViews(texts []string) (*Result, error) {
	merged := &Result{Days: make([]*event.Day, 0)}
	parsed := 0

	for _, text := range texts {
		r, err := p.Parse(text)
		if errors.Is(err, ErrNoInput) {
			continue
		}
		if err != nil {
			return nil, err
		}
		parsed++
		merged.Merge(r)
	}

	if parsed == 0 {
		return nil, ErrNoInput
	}
	return merged, nil
}

// Merge folds other into r. Days with a date already in r replace it in place.
func (r *Result) Merge(other *Result) {
	positions := make(map[string]int, len(r.Days))
	for i, d := range r.Days {
		positions[d.Date] = i
	}

	for _, d := range other.Days {
		if pos, exists := positions[d.Date]; exists {
			r.Days[pos] = d
			continue
		}
		positions[d.Date] = len(r.Days)
		r.Days = append(r.Days, d)
	}
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.TimeHeaders += other.TimeHeaders
}

// parseDay resolves a day block's date and extracts its events.
// It also returns the number of time headers seen so failures still count them.
func (p *Parser) parseDay(block DayBlock, now time.Time) (day *event.Day, headers int, err error) {
	defer func() {
		if r := recover(); r != nil {
			day = nil
			err = fmt.Errorf("panic while parsing day: %v", r)
		}
	}()

	eventBlocks := p.blocks.Blocks(block)
	headers = len(eventBlocks)

	date, err := event.ResolveDate(block.Header.MonthName, block.Header.Day, block.Header.Year, now)
	if err != nil {
		return nil, headers, fmt.Errorf("resolving date: %w", err)
	}

	day = event.NewDay(date, block.Header.DayName)
	for _, eb := range eventBlocks {
		day.Events = append(day.Events, p.extractor.Extract(eb))
	}

	logger.IncrCounter("parser.days")
	logger.Debug("Parsed day", logger.Fields{
		"date":   day.Date,
		"events": len(day.Events),
	})

	return day, headers, nil
}

func formatHeader(h DayHeader) string {
	if h.Year > 0 {
		return fmt.Sprintf("%s, %s %d, %d", h.DayName, h.MonthName, h.Day, h.Year)
	}
	return fmt.Sprintf("%s, %s %d", h.DayName, h.MonthName, h.Day)
}
