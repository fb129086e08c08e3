// Package logger provides structured JSON logging and in-process metrics for
// rec-schedule.
//
// Every log line is one JSON object with a timestamp, level, message, optional
// fields and optional error. Loggers derived with With carry fields such as the
// component or source URL into every entry.
//
//	logger.Info("Parsed schedule", logger.Fields{"days": 7, "events": 212})
//	logger.Error("Browser capture failed", logger.Fields{"url": url}, err)
//
// Metrics are counters, gauges and timings kept in memory for the life of the
// process. The watch command logs a snapshot when it stops.
//
//	logger.IncrCounter("parser.days")
//	logger.RecordTiming("parser.parse", time.Since(start))
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

func (l Level) rank() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" into a Level.
// Unknown names fall back to LevelInfo.
func ParseLevel(name string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(name))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// Fields represents structured log fields
type Fields map[string]interface{}

// LogEntry is the JSON shape of one log line
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// sink is shared by a logger and every logger derived from it
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

// Logger writes levelled JSON lines
type Logger struct {
	minLevel Level
	sink     *sink
	base     Fields
	now      func() time.Time
}

// New creates a logger that discards messages below level
func New(level Level, output io.Writer) *Logger {
	return &Logger{
		minLevel: level,
		sink:     &sink{out: output},
		now:      time.Now,
	}
}

// With returns a logger that adds fields to every entry. Fields passed to a
// single call win over these.
func (l *Logger) With(fields Fields) *Logger {
	child := *l
	child.base = mergeFields(l.base, fields)
	return &child
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level Level) bool {
	return level.rank() >= l.minLevel.rank()
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    mergeFields(l.base, fields),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if marshalErr != nil {
		// Unencodable field values still leave a readable line
		fmt.Fprintf(l.sink.out, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, marshalErr)
		return
	}
	l.sink.out.Write(append(data, '\n')) //nolint:errcheck
}

func mergeFields(base, extra Fields) Fields {
	if len(base) == 0 {
		return extra
	}
	merged := make(Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// Debug logs detailed diagnostics
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs normal progress
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a problem that did not stop the run
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs a failure together with its error
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New(LevelInfo, os.Stderr))
}

// Default returns the package-level logger
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the package-level logger used by Debug, Info, Warn and Error
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

func Debug(message string, fields Fields) { Default().Debug(message, fields) }

func Info(message string, fields Fields) { Default().Info(message, fields) }

func Warn(message string, fields Fields) { Default().Warn(message, fields) }

func Error(message string, fields Fields, err error) { Default().Error(message, fields, err) }

// Metrics tracks counters, gauges and timings. It is safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// TimingStats summarizes the recorded durations of one timing
type TimingStats struct {
	Count   int    `json:"count"`
	Total   string `json:"total"`
	Average string `json:"average"`
	Min     string `json:"min"`
	Max     string `json:"max"`
}

// Snapshot is a point-in-time copy of all metrics
type Snapshot struct {
	Counters map[string]int64       `json:"counters"`
	Gauges   map[string]float64     `json:"gauges"`
	Timings  map[string]TimingStats `json:"timings"`
}

// Names returns every metric name in the snapshot, sorted
func (s Snapshot) Names() []string {
	var names []string
	for k := range s.Counters {
		names = append(names, k)
	}
	for k := range s.Gauges {
		names = append(names, k)
	}
	for k := range s.Timings {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NewMetrics creates an empty metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

// IncrCounter adds one to a counter, creating it at 1
func (m *Metrics) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// SetGauge overwrites a gauge
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

// RecordTiming appends one duration measurement
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings[name] = append(m.timings[name], duration)
}

// Snapshot copies the current metrics and aggregates each timing
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
		Timings:  make(map[string]TimingStats, len(m.timings)),
	}
	for k, v := range m.counters {
		s.Counters[k] = v
	}
	for k, v := range m.gauges {
		s.Gauges[k] = v
	}
	for name, durations := range m.timings {
		if len(durations) > 0 {
			s.Timings[name] = summarize(durations)
		}
	}
	return s
}

func summarize(durations []time.Duration) TimingStats {
	var total time.Duration
	lo, hi := durations[0], durations[0]
	for _, d := range durations {
		total += d
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	return TimingStats{
		Count:   len(durations),
		Total:   total.String(),
		Average: (total / time.Duration(len(durations))).String(),
		Min:     lo.String(),
		Max:     hi.String(),
	}
}

var defaultMetrics = NewMetrics()

// IncrCounter increments a counter on the process-wide tracker
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// SetGauge sets a gauge on the process-wide tracker
func SetGauge(name string, value float64) {
	defaultMetrics.SetGauge(name, value)
}

// RecordTiming records a timing on the process-wide tracker
func RecordTiming(name string, duration time.Duration) {
	defaultMetrics.RecordTiming(name, duration)
}

// GetMetricsSnapshot returns a snapshot of the process-wide tracker
func GetMetricsSnapshot() Snapshot {
	return defaultMetrics.Snapshot()
}
