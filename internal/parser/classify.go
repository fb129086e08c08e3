package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the category assigned to a single line of page text
type Kind int

const (
	KindDetail Kind = iota
	KindNoise
	KindDayHeader
	KindTimeHeader
)

func (k Kind) String() string {
	switch k {
	case KindDetail:
		return "detail"
	case KindNoise:
		return "noise"
	case KindDayHeader:
		return "day-header"
	case KindTimeHeader:
		return "time-header"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DayHeader holds the fields of a line such as "Monday, November 24, 2025"
type DayHeader struct {
	DayName   string
	MonthName string
	Day       int
	Year      int // 0 when the header has no year
}

// TimeHeader holds the fields of a line such as "5:30am-9:00am Lap Swim"
type TimeHeader struct {
	Start    string
	End      string
	Trailing string // text after the time range, usually the class name
}

// Classification is the result of classifying one line
type Classification struct {
	Kind Kind
	Day  DayHeader
	Time TimeHeader
}

const (
	weekdayNames = `Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday`
	monthNames   = `January|February|March|April|May|June|July|August|September|October|November|December`
)

var (
	// "Monday, November 24, 2025"
	dayWithYearPattern = regexp.MustCompile(`^(` + weekdayNames + `),\s+(` + monthNames + `)\s+(\d{1,2}),\s+(\d{4})$`)
	// "Friday, November 28"
	dayPattern = regexp.MustCompile(`^(` + weekdayNames + `),\s+(` + monthNames + `)\s+(\d{1,2})$`)
	// "12:30am-2:30pm" optionally followed by the class name
	timePattern = regexp.MustCompile(`^(\d{1,2}:\d{2}(?:am|pm))\s*-\s*(\d{1,2}:\d{2}(?:am|pm))(?:\s*(.*?))?\s*$`)
)

// Classifier assigns a Kind to lines of page text.
// Noise lines are matched exactly (after trimming); noise patterns are regular expressions.
type Classifier struct {
	noise    map[string]bool
	patterns []*regexp.Regexp
}

// DefaultNoiseLines are the GroupExPro page controls that appear between events
var DefaultNoiseLines = []string{
	"Add to Calendar",
	"See More",
	"Sign Up »",
	"Description »",
	"zumba_fitness.jpg",
	"logo_41484.jpg",
}

// DefaultNoisePatterns drop decorative image filenames
var DefaultNoisePatterns = []string{
	`(?i)^\S+\.(jpe?g|png|gif|svg|webp)$`,
}

// NewClassifier creates a Classifier from a noise denylist and noise patterns.
// Returns an error if a pattern does not compile.
func NewClassifier(noiseLines, noisePatterns []string) (*Classifier, error) {
	c := &Classifier{
		noise: make(map[string]bool, len(noiseLines)),
	}

	for _, line := range noiseLines {
		line = strings.TrimSpace(line)
		if line != "" {
			c.noise[line] = true
		}
	}

	for _, p := range noisePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling noise pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}

	return c, nil
}

// Classify returns the classification of a single line
func (c *Classifier) Classify(line string) Classification {
	line = strings.TrimSpace(line)
	if line == "" {
		return Classification{Kind: KindNoise}
	}

	if h, ok := ParseDayHeader(line); ok {
		return Classification{Kind: KindDayHeader, Day: h}
	}

	if h, ok := ParseTimeHeader(line); ok {
		return Classification{Kind: KindTimeHeader, Time: h}
	}

	if c.IsNoise(line) {
		return Classification{Kind: KindNoise}
	}

	return Classification{Kind: KindDetail}
}

// IsNoise reports whether line is on the denylist or matches a noise pattern
func (c *Classifier) IsNoise(line string) bool {
	line = strings.TrimSpace(line)
	if c.noise[line] {
		return true
	}
	for _, re := range c.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// ParseDayHeader matches either day header grammar.
// No calendar validation is done beyond the day number being 1-31.
func ParseDayHeader(line string) (DayHeader, bool) {
	line = strings.TrimSpace(line)

	if m := dayWithYearPattern.FindStringSubmatch(line); m != nil {
		day, _ := strconv.Atoi(m[3])
		year, _ := strconv.Atoi(m[4])
		if day < 1 || day > 31 {
			return DayHeader{}, false
		}
		return DayHeader{DayName: m[1], MonthName: m[2], Day: day, Year: year}, true
	}

	if m := dayPattern.FindStringSubmatch(line); m != nil {
		day, _ := strconv.Atoi(m[3])
		if day < 1 || day > 31 {
			return DayHeader{}, false
		}
		return DayHeader{DayName: m[1], MonthName: m[2], Day: day}, true
	}

	return DayHeader{}, false
}

// ParseTimeHeader matches a time range line such as "5:30am - 6:30am Lap Swim"
func ParseTimeHeader(line string) (TimeHeader, bool) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return TimeHeader{}, false
	}
	return TimeHeader{Start: m[1], End: m[2], Trailing: strings.TrimSpace(m[3])}, true
}
